package kafka

import (
	kafkago "github.com/segmentio/kafka-go"
)

// ReaderMetrics contains structured consumer metrics.
type ReaderMetrics struct {
	Messages   int64  `json:"messages"`
	Bytes      int64  `json:"bytes"`
	Errors     int64  `json:"errors"`
	Rebalances int64  `json:"rebalances"`
	Offset     int64  `json:"offset"`
	Lag        int64  `json:"lag"`
	Topic      string `json:"topic"`
}

// StatsReporter is implemented by consumers that expose reader statistics.
type StatsReporter interface {
	Stats() kafkago.ReaderStats
}

// CollectReaderMetrics extracts structured metrics from kafka-go reader stats.
func CollectReaderMetrics(stats kafkago.ReaderStats) ReaderMetrics {
	return ReaderMetrics{
		Messages:   stats.Messages,
		Bytes:      stats.Bytes,
		Errors:     stats.Errors,
		Rebalances: stats.Rebalances,
		Offset:     stats.Offset,
		Lag:        stats.Lag,
		Topic:      stats.Topic,
	}
}
