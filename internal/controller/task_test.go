package controller_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mediafetch/video-downloader/internal/controller"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	testingclock "k8s.io/utils/clock/testing"
)

var _ = Describe("tasks", func() {
	var clk *testingclock.FakeClock

	BeforeEach(func() {
		clk = testingclock.NewFakeClock(time.Now())
	})

	It("runs Every on each interval until stopped", func() {
		var n atomic.Int32
		t := controller.Every(context.Background(), clk, time.Second, func(context.Context) { n.Add(1) })

		Consistently(n.Load, 50*time.Millisecond).Should(BeZero())

		for i := int32(1); i <= 3; i++ {
			clk.Step(time.Second)
			Eventually(n.Load).Should(Equal(i))
		}

		t.Stop()
		Eventually(t.Done()).Should(BeClosed())

		clk.Step(time.Second)
		Consistently(n.Load, 50*time.Millisecond).Should(Equal(int32(3)))
	})

	It("runs Until immediately and stops when fn returns false", func() {
		var n atomic.Int32
		t := controller.Until(context.Background(), clk, time.Second, func(context.Context) bool {
			return n.Add(1) < 3
		})

		Eventually(n.Load).Should(Equal(int32(1)))
		Eventually(func() int32 {
			clk.Step(time.Second)
			return n.Load()
		}).Should(Equal(int32(3)))

		Eventually(t.Done()).Should(BeClosed())
	})

	It("stops Until through the parent context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		var n atomic.Int32
		t := controller.Until(ctx, clk, time.Second, func(context.Context) bool {
			n.Add(1)
			return true
		})

		Eventually(n.Load).Should(Equal(int32(1)))
		cancel()
		Eventually(t.Done()).Should(BeClosed())
	})

	It("ignores Stop on a nil task", func() {
		var t *controller.Task
		Expect(t.Stop).NotTo(Panic())
	})
})
