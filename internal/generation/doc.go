// Package generation turns free-text notes into a batch of question/answer
// flashcards.
//
// The Orchestrator drives a fixed number of calls to an
// inference.QuestionAnswerer, one per card, using the sanitized notes as the
// shared context passage. Each run moves through an explicit sequence of
// states:
//
//	Idle → Validating → Sanitized → Calling(1..N) → Assembled → [Persisting] → Done
//
// Any state may move to Failed. The first failed call aborts the run: no
// further calls are issued and answers already obtained are discarded, so a
// caller receives either a full batch or an error, never a partial batch.
//
// With a concurrency limit above one the calls are issued in parallel. The
// first failure cancels the remaining calls and the batch is still assembled
// in question order.
package generation
