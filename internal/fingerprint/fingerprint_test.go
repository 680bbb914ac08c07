package fingerprint_test

import (
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/herald/internal/fingerprint"
)

var _ = Describe("Compute", func() {
	It("returns 32 lowercase hex characters", func() {
		Expect(fingerprint.Compute("com.whatsapp", "Alice", "hi")).To(MatchRegexp(`^[0-9a-f]{32}$`))
	})

	It("is stable for identical input", func() {
		a := fingerprint.Compute("com.whatsapp", "Alice", "hi")
		b := fingerprint.Compute("com.whatsapp", "Alice", "hi")
		Expect(a).To(Equal(b))
	})

	It("does not let an empty title and an empty body swap places", func() {
		Expect(fingerprint.Compute("src", "", "X")).NotTo(Equal(fingerprint.Compute("src", "X", "")))
	})

	It("does not let bytes shift between segments", func() {
		Expect(fingerprint.Compute("ab", "c", "d")).NotTo(Equal(fingerprint.Compute("a", "bc", "d")))
		Expect(fingerprint.Compute("a", "b", "cd")).NotTo(Equal(fingerprint.Compute("a", "bc", "d")))
	})

	It("differs when any single field changes", func() {
		base := fingerprint.Compute("src", "title", "body")
		Expect(fingerprint.Compute("src2", "title", "body")).NotTo(Equal(base))
		Expect(fingerprint.Compute("src", "title2", "body")).NotTo(Equal(base))
		Expect(fingerprint.Compute("src", "title", "body2")).NotTo(Equal(base))
	})

	It("has no collisions across a sampled corpus", func() {
		seen := make(map[string]string, 3000)
		for i := range 10 {
			for j := range 15 {
				for k := range 20 {
					in := fmt.Sprintf("%d|%d|%d", i, j, k)
					fp := fingerprint.Compute(fmt.Sprintf("pkg.%d", i), fmt.Sprintf("title %d", j), fmt.Sprintf("body %d", k))
					prev, dup := seen[fp]
					Expect(dup).To(BeFalse(), "collision between %s and %s", prev, in)
					seen[fp] = in
				}
			}
		}
		Expect(seen).To(HaveLen(3000))
	})

	It("is safe for concurrent use", func() {
		want := fingerprint.Compute("src", "t", "b")
		var wg sync.WaitGroup
		results := make([]string, 50)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = fingerprint.Compute("src", "t", "b")
			}(i)
		}
		wg.Wait()
		for _, r := range results {
			Expect(r).To(Equal(want))
		}
	})
})

var _ = Describe("Of", func() {
	It("distinguishes a missing part from an empty one", func() {
		Expect(fingerprint.Of("gmail", "123")).NotTo(Equal(fingerprint.Of("gmail", "123", "")))
	})
})
