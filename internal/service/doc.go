// Package service contains the application use cases. It coordinates the
// generation orchestrator, the stores defined in internal/store and the
// payment gateway, and applies the access rules that sit between an
// authenticated caller and those collaborators.
//
// Services receive their dependencies through constructors and never depend
// on a concrete storage or transport implementation.
package service
