package worker

import (
	"context"

	"github.com/rentiva/veriprop/internal/repository"
	"github.com/rentiva/veriprop/internal/stream"
	"github.com/rentiva/veriprop/internal/verification"
	"github.com/rentiva/veriprop/internal/workflow"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Engine      *verification.Engine
	Workflow    *workflow.Workflow
	Ctx         context.Context
}

const (
	// verifyDocumentGroupID is used for workers that run queued document verification attempts
	verifyDocumentGroupID = "kyc-verification-group"

	// Topics
	// VerifyDocumentTopic carries queued verification jobs so document checks can run off the request path
	VerifyDocumentTopic = "kyc.verify.document"

	// VerifyCompletedTopic announces finished attempts for anything that wants to react to an outcome
	VerifyCompletedTopic = "kyc.verify.completed"
)

// Our workers typically need access to the database, the verification
// engine and the kafka event stream
// worker-specific dependencies can be passed as argument to the worker
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Engine:      wk.Engine,
		Workflow:    wk.Workflow,
		Ctx:         wk.Ctx,
	}
}
