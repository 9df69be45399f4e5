package mocks

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Delivery struct {
	Address string
	Code    string
}

// Notifier records deliveries instead of sending mail.
type Notifier struct {
	mu         sync.Mutex
	deliveries []Delivery
	err        error
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Deliver(_ context.Context, address, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.deliveries = append(n.deliveries, Delivery{Address: address, Code: code})
	return n.err
}

// FailWith makes every following delivery attempt return err. Attempts are
// still recorded.
func (n *Notifier) FailWith(err error) *Notifier {
	n.mu.Lock()
	n.err = err
	n.mu.Unlock()
	return n
}

func (n *Notifier) Deliveries() []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Delivery, len(n.deliveries))
	copy(out, n.deliveries)
	return out
}

func (n *Notifier) AssertDeliveryCount(t *testing.T, expected int) *Notifier {
	t.Helper()
	assert.Len(t, n.Deliveries(), expected)
	return n
}

func (n *Notifier) AssertNoDeliveries(t *testing.T) *Notifier {
	t.Helper()
	return n.AssertDeliveryCount(t, 0)
}

// RequireLastDelivery returns the most recent delivery to address.
func (n *Notifier) RequireLastDelivery(t *testing.T, address string) Delivery {
	t.Helper()

	deliveries := n.Deliveries()
	for i := len(deliveries) - 1; i >= 0; i-- {
		if deliveries[i].Address == address {
			return deliveries[i]
		}
	}
	require.Failf(t, "delivery not found", "no delivery to %q", address)
	return Delivery{}
}
