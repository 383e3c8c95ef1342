package worker

import (
	"encoding/json"

	"github.com/rentiva/veriprop/internal/stream"
	"github.com/rentiva/veriprop/internal/verification"
)

// KafkaDispatcher satisfies the engine's Dispatcher interface by
// producing jobs onto the verification topic. The engine itself never
// learns that kafka exists.
type KafkaDispatcher struct {
	Stream *stream.KafkaStream
}

func (d *KafkaDispatcher) DispatchVerification(job *verification.VerifyJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return d.Stream.ProduceMessage(VerifyDocumentTopic, string(payload))
}
