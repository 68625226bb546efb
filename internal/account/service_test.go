package account_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/talkalot/internal/account"
	"github.com/san-kum/talkalot/internal/backend"
)

var _ = Describe("Service", func() {
	var (
		ctx  context.Context
		mem  *backend.Memory
		svc  *account.Service
		now  time.Time
		form account.SignupForm
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem = backend.NewMemory()
		now = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
		svc = account.NewService(mem, mem, account.WithClock(func() time.Time { return now }))
		form = account.SignupForm{
			Name:            "Grace",
			Email:           "grace@example.com",
			Password:        "Cobol!60",
			ConfirmPassword: "Cobol!60",
			DateOfBirth:     time.Date(1990, time.December, 9, 0, 0, 0, 0, time.UTC),
		}
	})

	Describe("Signup", func() {
		It("creates the account and writes its profile", func() {
			u, err := svc.Signup(ctx, form)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal(form.Email))

			p, ok := mem.Profile(u.ID)
			Expect(ok).To(BeTrue())
			Expect(p).To(Equal(backend.Profile{
				Name:        "Grace",
				Email:       "grace@example.com",
				DateOfBirth: "1990-12-09",
				CreatedAt:   now,
			}))
		})

		It("stops at validation without calling the backend", func() {
			form.Name = "Grace9"
			_, err := svc.Signup(ctx, form)
			Expect(account.MessageOf(err)).To(Equal(account.MsgNameDigits))
			Expect(mem.Calls()).To(Equal(0))
		})

		It("maps an email already in use", func() {
			_, err := svc.Signup(ctx, form)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Signup(ctx, form)
			Expect(account.MessageOf(err)).To(Equal("This email is already associated with an account."))
		})

		It("maps a network failure", func() {
			mem.FailNext(&backend.Error{Code: backend.CodeNetwork})
			_, err := svc.Signup(ctx, form)
			Expect(account.MessageOf(err)).To(Equal("Please try again later."))
		})

		It("reports a profile that could not be saved", func() {
			failing := failingStore{err: errors.New("permission denied")}
			svc = account.NewService(mem, failing, account.WithClock(func() time.Time { return now }))

			u, err := svc.Signup(ctx, form)
			Expect(u.ID).NotTo(BeEmpty())
			Expect(account.MessageOf(err)).To(Equal(account.MsgProfileNotSaved))
			Expect(errors.Is(err, failing.err)).To(BeTrue())
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, err := svc.Signup(ctx, form)
			Expect(err).NotTo(HaveOccurred())
		})

		It("signs in with the right password", func() {
			u, err := svc.Login(ctx, form.Email, form.Password)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IDToken).NotTo(BeEmpty())
		})

		DescribeTable("maps failures to messages",
			func(email, password, want string) {
				_, err := svc.Login(ctx, email, password)
				Expect(account.MessageOf(err)).To(Equal(want))
			},
			Entry("unknown user", "nobody@example.com", "x", "This email is not associated with an account."),
			Entry("wrong password", "grace@example.com", "nope", "Incorrect password. Please try again."),
			Entry("bad email", "grace", "x", "Please enter a valid email."),
		)

		It("falls back for unlisted codes", func() {
			mem.FailNext(&backend.Error{Code: backend.CodeNetwork})
			_, err := svc.Login(ctx, form.Email, form.Password)
			Expect(account.MessageOf(err)).To(Equal("Authentication failed. Please try again."))
		})
	})

	Describe("ResetPassword", func() {
		It("asks for an email without calling the backend", func() {
			_, err := svc.ResetPassword(ctx, "")
			Expect(account.MessageOf(err)).To(Equal(account.MsgResetEmailRequired))
			Expect(mem.Calls()).To(Equal(0))
		})

		It("sends the reset and returns the notice", func() {
			_, err := svc.Signup(ctx, form)
			Expect(err).NotTo(HaveOccurred())

			notice, err := svc.ResetPassword(ctx, form.Email)
			Expect(err).NotTo(HaveOccurred())
			Expect(notice).To(Equal(account.MsgResetSent))
			Expect(mem.Resets()).To(ConsistOf(form.Email))
		})

		It("maps an unknown user", func() {
			_, err := svc.ResetPassword(ctx, "ghost@example.com")
			Expect(account.MessageOf(err)).To(Equal("This email is not associated with an account."))
		})

		It("falls back for other failures", func() {
			mem.FailNext(errors.New("boom"))
			_, err := svc.ResetPassword(ctx, "ghost@example.com")
			Expect(account.MessageOf(err)).To(Equal("Error sending password reset email."))
		})
	})
})

type failingStore struct{ err error }

func (f failingStore) WriteUserProfile(context.Context, backend.User, backend.Profile) error {
	return f.err
}
