package financial_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/herald/internal/financial"
	"basegraph.app/herald/internal/model"
)

var _ = Describe("Parse", func() {
	It("reads an incoming payment as a deposit", func() {
		f := financial.Parse("Venmo", "John paid you $50.00 for dinner", 0)
		Expect(f).NotTo(BeNil())
		Expect(f.Type).To(Equal(model.TransactionTypeDeposit))
		amount, ok := f.Amount()
		Expect(ok).To(BeTrue())
		Expect(amount).To(Equal(50.00))
		Expect(f.Currency).To(Equal("USD"))
		Expect(f.RequiresAction).To(BeFalse())
	})

	It("reads a payment request as requiring action", func() {
		f := financial.Parse("", "Jane requested $25.00 for lunch", 0)
		Expect(f).NotTo(BeNil())
		Expect(f.Type).To(Equal(model.TransactionTypeRequest))
		Expect(*f.AmountMinor).To(Equal(int64(2500)))
		Expect(f.RequiresAction).To(BeTrue())
	})

	It("leaves the amount nil when it has two decimal points", func() {
		f := financial.Parse("", "John paid you $50.00.00 for dinner", 0)
		Expect(f).NotTo(BeNil())
		Expect(f.Type).To(Equal(model.TransactionTypeDeposit))
		Expect(f.AmountMinor).To(BeNil())
		Expect(f.Currency).To(Equal("USD"))
	})

	It("leaves the amount nil when it exceeds the maximum", func() {
		f := financial.Parse("", "John paid you $5,000.00", 1000)
		Expect(f).NotTo(BeNil())
		Expect(f.AmountMinor).To(BeNil())
	})

	It("accepts thousands separators within the maximum", func() {
		f := financial.Parse("", "John paid you $1,250.50", 0)
		Expect(*f.AmountMinor).To(Equal(int64(125050)))
	})

	It("ignores a trailing full stop", func() {
		f := financial.Parse("", "You paid Alex $12.40.", 0)
		Expect(f.Type).To(Equal(model.TransactionTypePayment))
		Expect(*f.AmountMinor).To(Equal(int64(1240)))
	})

	It("recognises ISO currency codes", func() {
		f := financial.Parse("Card", "Purchase of 19.99 EUR at Bakery", 0)
		Expect(f.Type).To(Equal(model.TransactionTypePurchase))
		Expect(f.Currency).To(Equal("EUR"))
		Expect(*f.AmountMinor).To(Equal(int64(1999)))
	})

	It("returns nil for text without transaction wording", func() {
		Expect(financial.Parse("Weekly summary", "Check out new features", 0)).To(BeNil())
	})

	It("keeps the type when no amount is present", func() {
		f := financial.Parse("", "Your refund is on its way", 0)
		Expect(f.Type).To(Equal(model.TransactionTypeRefund))
		Expect(f.AmountMinor).To(BeNil())
		Expect(f.Currency).To(BeEmpty())
	})
})
