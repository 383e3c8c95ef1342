package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rentiva/veriprop/internal/stream"
	"github.com/rentiva/veriprop/internal/verification"
)

// VerifyDocumentWorker consumes queued verification jobs and runs them
// through the engine. Retry and dead-lettering are the queue's
// business; a job that fails here is logged and dropped.
func (wk *Worker) VerifyDocumentWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: verifyDocumentGroupID,
		Topic:   VerifyDocumentTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	for {
		event := consumer.Poll(100) // Poll every 100ms
		switch e := event.(type) {
		case *kafka.Message:
			message := e.Value
			log.Printf("Verification job received on %s: %s\n", e.TopicPartition, string(e.Value))

			var job verification.VerifyJob
			if err := json.Unmarshal(message, &job); err != nil {
				log.Printf("Error decoding verification job: %v", err)
				continue
			}

			success := wk.runVerification(&job)
			if success {
				// Announce completion so downstream consumers can react,
				// e.g. notify the owner that a document is ready for review.
				wk.KafkaStream.ProduceMessage(VerifyCompletedTopic, string(e.Value))
			}
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
			// Handle other events if needed
		}
	}
}

func (wk *Worker) runVerification(job *verification.VerifyJob) bool {
	docs, err := wk.DB.VerificationDocument().ListForRequest(job.RequestID)
	if err != nil {
		log.Printf("Error loading documents for request %s: %v", job.RequestID, err)
		return false
	}

	// Attempting at all moves the request out of pending, regardless of
	// how the attempt itself ends.
	if err := wk.Workflow.RecordAttempt(job.RequestID); err != nil {
		log.Printf("Error recording attempt for request %s: %v", job.RequestID, err)
	}

	outcome, err := wk.Engine.VerifyIdentity(wk.Ctx, job.SubjectID, job.DocumentType, docs, job.Claimed)
	if err != nil {
		log.Printf("Error verifying document for request %s: %v", job.RequestID, err)
		return false
	}

	log.Printf("Verification completed for request %s: success=%t confidence=%.1f",
		job.RequestID, outcome.Success, outcome.Result.Confidence)

	return true
}
