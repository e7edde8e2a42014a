package events

import (
	"bytes"
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes successfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithOutputTopic("jobs"))

			err := kp.Write(context.TODO(), JobStartedKind, bytes.NewReader([]byte(`{"file_id":"1"}`)))
			Expect(err).To(BeNil())
			Eventually(w.Len).Should(Equal(1))

			err = kp.Write(context.TODO(), JobDoneKind, bytes.NewReader([]byte(`{"file_id":"1"}`)))
			Expect(err).To(BeNil())
			Eventually(w.Len).Should(Equal(2))

			msgs := w.Events()
			Expect(msgs[0].Type).To(Equal(JobStartedKind))
			Expect(msgs[1].Type).To(Equal(JobDoneKind))
			Expect(msgs[0].Source).To(Equal(eventSource))
			Expect(msgs[0].ID).NotTo(Equal(msgs[1].ID))
			Expect(string(msgs[1].Data)).To(Equal(`{"file_id":"1"}`))
			Expect(w.Topics()).To(ConsistOf("jobs", "jobs"))

			Expect(kp.Close()).To(Succeed())
			Expect(w.Closed()).To(BeTrue())
		})

		It("keeps ordering under bursts", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			for i := 0; i < 100; i++ {
				Expect(kp.Write(context.TODO(), JobDoneKind, bytes.NewReader([]byte{byte(i)}))).To(Succeed())
			}
			Eventually(w.Len).Should(Equal(100))
			for i, e := range w.Events() {
				Expect(e.Data).To(BeEquivalentTo([]byte{byte(i)}))
			}

			Expect(kp.Close()).To(Succeed())
		})
	})
})

type testwriter struct {
	mu       sync.Mutex
	messages []Event
	topics   []string
	closed   bool
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(ctx context.Context, topic string, e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *testwriter) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *testwriter) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event{}, t.messages...)
}

func (t *testwriter) Topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.topics...)
}

func (t *testwriter) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
