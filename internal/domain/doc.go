// Package domain contains the core business entities, value objects, and
// error kinds of the flashcard service. It is independent of any specific
// infrastructure or delivery mechanism: notes, question/answer pairs,
// flashcard batches, user identities, payments and premium entitlements.
package domain
