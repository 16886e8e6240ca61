package record_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hearthside/loom/pkg/record"
)

var _ = Describe("Block", func() {
	It("renders categories in fixed order", func() {
		m := &record.MemoryRecord{
			Entities: record.Entities{
				People: []string{"Giuseppe"},
				Places: []string{"Ellis Island"},
				Dates:  []string{"1955"},
				Events: []string{"immigrated to America"},
			},
		}

		Expect(record.Block(m)).To(Equal(
			"Events: immigrated to America\n" +
				"People: Giuseppe\n" +
				"Places: Ellis Island\n" +
				"Dates: 1955"))
	})

	It("joins multiple items with commas", func() {
		m := &record.MemoryRecord{
			Entities: record.Entities{
				People: []string{"Giuseppe", "Maria"},
			},
		}

		Expect(record.Block(m)).To(Equal("People: Giuseppe, Maria"))
	})

	It("skips empty categories and blank items", func() {
		m := &record.MemoryRecord{
			Entities: record.Entities{
				People: []string{"  ", ""},
				Events: []string{"the wedding"},
			},
		}

		Expect(record.Block(m)).To(Equal("Events: the wedding"))
	})

	It("renders relationships as readable phrases", func() {
		m := &record.MemoryRecord{
			Entities: record.Entities{
				Relationships: []record.Relationship{
					{From: "Giuseppe", To: "Maria", Relation: "husband"},
					{From: "", To: "Maria", Relation: "friend"},
				},
			},
		}

		Expect(record.Block(m)).To(Equal("Relationships: Giuseppe is husband of Maria"))
	})

	It("renders nothing for an empty record", func() {
		Expect(record.Block(&record.MemoryRecord{})).To(Equal(""))
	})
})

var _ = Describe("Normalize", func() {
	It("lowercases and trims", func() {
		Expect(record.Normalize("  Ellis Island ")).To(Equal("ellis island"))
	})
})

var _ = Describe("Entities", func() {
	It("reports empty when no categories are set", func() {
		Expect(record.Entities{Narrator: "me"}.IsEmpty()).To(BeTrue())
	})

	It("reports non-empty when any category is set", func() {
		Expect(record.Entities{Dates: []string{"1955"}}.IsEmpty()).To(BeFalse())
	})
})
