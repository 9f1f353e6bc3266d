package bus

import (
	"fmt"
	"strings"

	"github.com/lawbench/law-bench/internal/config"
	"github.com/lawbench/law-bench/internal/pkg/errors"
	"github.com/lawbench/law-bench/internal/pkg/logger"
)

// NewBus creates a new Bus instance based on the configuration.
func NewBus(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(log), nil

	case "kafka":
		brokers := ParseKafkaBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.ValidationError("kafka brokers not configured")
		}

		consumerGroup := cfg.KafkaGroup
		if consumerGroup == "" {
			consumerGroup = "law-bench"
		}

		return NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: consumerGroup,
			ClientID:      "law-bench-bus",
		}, log)

	case "none":
		return NewNoopBus(), nil

	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}
