// Package kafka feeds targeted-send requests from a Kafka topic into the
// event hub.
//
// Each record value is a JSON message of the same shape the HTTP send
// endpoint accepts:
//
//	{"event": {"type": "order.updated", "data": {...}}, "target": "user", "target_id": "u-42"}
//
// Records that fail to decode or validate are logged and, when a dead-letter
// topic is configured, forwarded there with the failure attached as headers.
//
// # Architecture
//
//   - Component: runs the consumers and owns the dead-letter producer (Start/Stop/Health)
//   - Ingest: decodes, validates and dispatches one record
//   - kafka/consumer: reader loop with failure backoff
//   - kafka/producer: writer with retries, used for dead letters
//
// # Configuration
//
//	kafka:
//	  enabled: true
//	  brokers: ["localhost:9092"]
//	  group_id: "pushhub"
//	  topic: "pushhub.send"
//	  dead_letter_topic: "pushhub.send.dlq"
package kafka
