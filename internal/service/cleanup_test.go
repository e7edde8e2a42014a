package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mediafetch/video-downloader/internal/service"
	"github.com/mediafetch/video-downloader/internal/storage"
	"github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeRemover struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeRemover) Remove(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	return nil
}

var _ = Describe("cleaner", func() {
	var (
		s      store.Store
		folder string
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.TODO()
		s = newTestStore()
		folder = GinkgoT().TempDir()
	})

	AfterEach(func() {
		s.Close()
	})

	writeAged := func(name string, age time.Duration) {
		p := filepath.Join(folder, name)
		Expect(os.WriteFile(p, []byte("x"), 0o644)).To(Succeed())
		Expect(os.Chtimes(p, time.Now().Add(-age), time.Now().Add(-age))).To(Succeed())
	}

	It("removes expired files, mirrored copies and job records", func() {
		writeAged("old.mp4", 25*time.Hour)
		writeAged("fresh.mp3", time.Hour)

		oldJob := uuid.New()
		_, err := s.Job().Create(ctx, model.Job{ID: uuid.New(), URL: "https://a", Format: "mp4", Status: model.JobStatusDone})
		Expect(err).To(BeNil())
		_, err = s.Job().Create(ctx, model.Job{ID: oldJob, URL: "https://a", Format: "mp4", Status: model.JobStatusDone, CreatedAt: time.Now().Add(-48 * time.Hour)})
		Expect(err).To(BeNil())

		mirror := &fakeRemover{}
		cleaner := service.NewCleaner(storage.NewLocal(folder), s, 24*time.Hour).WithMirror(mirror)

		removed, err := cleaner.Run(ctx)
		Expect(err).To(BeNil())
		Expect(removed).To(ConsistOf("old.mp4"))
		Expect(mirror.names).To(ConsistOf("old.mp4"))

		_, err = os.Stat(filepath.Join(folder, "fresh.mp3"))
		Expect(err).To(BeNil())

		_, err = s.Job().Get(ctx, oldJob)
		Expect(err).To(MatchError(store.ErrRecordNotFound))
	})

	It("runs periodically until the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		cleaner := service.NewCleaner(storage.NewLocal(folder), s, time.Hour)
		cleaner.Start(cctx, 50*time.Millisecond)

		writeAged("stale.mp4", 2*time.Hour)
		Eventually(func() bool {
			_, err := os.Stat(filepath.Join(folder, "stale.mp4"))
			return os.IsNotExist(err)
		}, 2*time.Second, 20*time.Millisecond).Should(BeTrue())
	})
})
