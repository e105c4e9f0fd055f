package kafka_test

import (
	"context"
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/events/kafka"
)

func TestPublish_RejectsUnencodableEvent(t *testing.T) {
	p := kafka.NewPublisher([]string{"127.0.0.1:1"}, log.NewNopLogger())
	t.Cleanup(func() { p.Close() })

	err := p.Publish(context.Background(), "escrow.deposited", "key", make(chan int))
	require.Error(t, err)
}
