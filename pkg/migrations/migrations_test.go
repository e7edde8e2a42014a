package migrations_test

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mediafetch/video-downloader/internal/config"
	"github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/internal/store/model"
	"github.com/mediafetch/video-downloader/pkg/migrations"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("migrations", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		cfg    *config.Config
	)

	BeforeAll(func() {
		var err error
		cfg, err = config.New()
		Expect(err).To(BeNil())
		cfg.Database.Type = "sqlite"
		cfg.Database.Name = filepath.Join(GinkgoT().TempDir(), "migrations.db")

		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
	})

	AfterAll(func() {
		s.Close()
	})

	Context("store migrations", Ordered, func() {
		It("fails to migrate the db -- migration folder does not exists", func() {
			err := migrations.MigrateStore(gormdb, store.Dialect(cfg), "some folder")
			Expect(err).NotTo(BeNil())
		})

		It("successfully migrates the db", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())

			err = migrations.MigrateStore(gormdb, store.Dialect(cfg), path.Join(currentFolder, "sql"))
			Expect(err).To(BeNil())

			Expect(gormdb.Migrator().HasTable("jobs")).To(BeTrue())
			Expect(gormdb.Migrator().HasTable("goose_db_version")).To(BeTrue())
		})

		It("the migrated schema serves the job store", func() {
			_, err := s.Job().Create(context.TODO(), model.Job{ID: uuid.New(), URL: "https://a", Format: "mp4", Status: model.JobStatusPending})
			Expect(err).To(BeNil())
		})

		It("is idempotent", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())

			err = migrations.MigrateStore(gormdb, store.Dialect(cfg), path.Join(currentFolder, "sql"))
			Expect(err).To(BeNil())
		})
	})
})
