package storage_test

import (
	"github.com/cockroachdb/pebble"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pbrane/newts/pkg/storage"
	"os"
)

var _ = Describe("Storage", func() {
	Describe("Open", func() {
		Describe("Memory backed", func() {
			It("Should open a usable key-value store", func() {
				s, err := storage.Open(storage.Config{Dirname: "newts", MemBacked: true})
				Expect(err).ToNot(HaveOccurred())
				Expect(s.KV.Set([]byte("k"), []byte("v"), pebble.Sync)).To(Succeed())
				v, closer, err := s.KV.Get([]byte("k"))
				Expect(err).ToNot(HaveOccurred())
				Expect(v).To(Equal([]byte("v")))
				Expect(closer.Close()).To(Succeed())
				Expect(s.Close()).To(Succeed())
			})
		})
		Describe("Acquiring a lock", func() {
			var dirname string
			BeforeEach(func() {
				var err error
				dirname, err = os.MkdirTemp("", "newts-storage")
				Expect(err).ToNot(HaveOccurred())
			})
			AfterEach(func() {
				Expect(os.RemoveAll(dirname)).To(Succeed())
			})
			It("Should return an error if the lock is already acquired", func() {
				cfg := storage.Config{Dirname: dirname}
				s, err := storage.Open(cfg)
				Expect(err).ToNot(HaveOccurred())
				_, err = storage.Open(cfg)
				Expect(err).To(HaveOccurred())
				Expect(s.Close()).To(Succeed())
			})
			It("Should allow re-opening after the storage is closed", func() {
				cfg := storage.Config{Dirname: dirname}
				s, err := storage.Open(cfg)
				Expect(err).ToNot(HaveOccurred())
				Expect(s.Close()).To(Succeed())
				s, err = storage.Open(cfg)
				Expect(err).ToNot(HaveOccurred())
				Expect(s.Close()).To(Succeed())
			})
		})
	})
})
