// Package gemini implements inference.QuestionAnswerer on top of Google's
// Gemini API.
//
// Gemini is a generative model, so the adapter constrains it to extractive
// answers: the prompt asks for a span copied from the context and the
// response is forced into a JSON object with a single "answer" field. An
// empty answer maps to inference.NoAnswer.
//
// API errors carrying an HTTP status are reported as inference.KindStatus,
// failures to reach the API as inference.KindTransport, and responses that
// cannot be decoded (no candidates, blocked content, invalid JSON) as
// inference.KindMalformed. The adapter never retries.
package gemini
