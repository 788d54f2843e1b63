package kafka

import (
	"testing"

	"github.com/Shopify/sarama"
	"github.com/stretchr/testify/assert"
)

func TestBuildBaseConfig(t *testing.T) {
	c := DefaultConfig()
	c.ProducerCompression = "lz4"
	c.ProducerRetries = 0

	cfg := BuildBaseConfig(c)
	assert.Equal(t, sarama.CompressionLZ4, cfg.Producer.Compression)
	assert.Equal(t, 1, cfg.Producer.Retry.Max)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.True(t, cfg.Producer.Return.Successes)
	assert.Equal(t, "psocial", cfg.ClientID)
	assert.NoError(t, cfg.Validate())
}

func TestTopic(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "psocial.message.created", c.Topic("message.created"))

	c.TopicPattern = ""
	assert.Equal(t, "post.interaction", c.Topic("post.interaction"))
}
