package kafka

import "github.com/Shopify/sarama"

type AppConfig struct {
	Brokers                 []string
	ClientID                string
	TopicPattern            string // e.g. "psocial.%s" -> psocial.message.created
	PartitionsPerTopic      int32
	ReplicationFactor       int16 // 单机=1；生产=3
	ProducerRetries         int
	ProducerCompression     string // none/snappy/lz4/zstd
	KafkaVersion            sarama.KafkaVersion
	AutoCreateTopicsOnStart bool
}

func DefaultConfig() AppConfig {
	return AppConfig{
		Brokers:                 []string{"127.0.0.1:9092"},
		ClientID:                "psocial",
		TopicPattern:            "psocial.%s",
		PartitionsPerTopic:      8,
		ReplicationFactor:       1,
		ProducerRetries:         5,
		ProducerCompression:     "snappy",
		KafkaVersion:            sarama.V2_1_0_0,
		AutoCreateTopicsOnStart: true,
	}
}
