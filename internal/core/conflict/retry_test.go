package conflict_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/conflict"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConflict(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Conflict Retry Suite")
}

var _ = Describe("Policy.Do", func() {
	var policy conflict.Policy

	BeforeEach(func() {
		policy = conflict.NewPolicy(3, time.Millisecond, nil)
	})

	It("returns immediately on success", func() {
		calls := 0
		err := policy.Do(context.Background(), "test", func(context.Context) error {
			calls++
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(1))
	})

	It("retries conflicts until the operation succeeds", func() {
		calls := 0
		err := policy.Do(context.Background(), "test", func(context.Context) error {
			calls++
			if calls < 3 {
				return internal.ErrConcurrencyConflict
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(3))
	})

	It("surfaces the conflict once attempts are exhausted", func() {
		calls := 0
		err := policy.Do(context.Background(), "test", func(context.Context) error {
			calls++
			return internal.ErrConcurrencyConflict
		})
		Expect(errors.Is(err, internal.ErrConcurrencyConflict)).To(BeTrue())
		Expect(calls).To(Equal(3))
	})

	It("does not retry other errors", func() {
		calls := 0
		err := policy.Do(context.Background(), "test", func(context.Context) error {
			calls++
			return internal.ErrInvalidExpiry
		})
		Expect(errors.Is(err, internal.ErrInvalidExpiry)).To(BeTrue())
		Expect(calls).To(Equal(1))
	})

	It("recognises a conflict wrapped with a cause", func() {
		calls := 0
		err := policy.Do(context.Background(), "test", func(context.Context) error {
			calls++
			return internal.ErrConcurrencyConflict.WithCause(errors.New("duplicate key"))
		})
		Expect(errors.Is(err, internal.ErrConcurrencyConflict)).To(BeTrue())
		Expect(calls).To(Equal(3))
	})
})
