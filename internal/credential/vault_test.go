package credential_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/herald/internal/credential"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/store"
)

type mockCredentialStore struct {
	mu       sync.Mutex
	rows     map[model.Provider]model.SealedCredential
	upsertFn func(ctx context.Context, cred *model.SealedCredential) error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{rows: map[model.Provider]model.SealedCredential{}}
}

func (m *mockCredentialStore) Upsert(ctx context.Context, cred *model.SealedCredential) (*model.SealedCredential, error) {
	if m.upsertFn != nil {
		if err := m.upsertFn(ctx, cred); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[cred.Provider] = *cred
	return cred, nil
}

func (m *mockCredentialStore) Get(ctx context.Context, provider model.Provider) (*model.SealedCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[provider]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &row, nil
}

func (m *mockCredentialStore) Delete(ctx context.Context, provider model.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, provider)
	return nil
}

func (m *mockCredentialStore) ListProviders(ctx context.Context) ([]model.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Provider
	for p := range m.rows {
		out = append(out, p)
	}
	return out, nil
}

var testKey = bytes.Repeat([]byte{7}, 32)

func ptr[T any](v T) *T { return &v }

var _ = Describe("Sealer", func() {
	It("round-trips and never stores plaintext", func() {
		s, err := credential.NewSealer(testKey)
		Expect(err).NotTo(HaveOccurred())

		sealed, err := s.Seal([]byte("secret-token"))
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.Contains(sealed, []byte("secret-token"))).To(BeFalse())

		opened, err := s.Open(sealed)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(opened)).To(Equal("secret-token"))
	})

	It("uses a fresh nonce per seal", func() {
		s, _ := credential.NewSealer(testKey)
		a, _ := s.Seal([]byte("x"))
		b, _ := s.Seal([]byte("x"))
		Expect(a).NotTo(Equal(b))
	})

	It("rejects tampered ciphertext", func() {
		s, _ := credential.NewSealer(testKey)
		sealed, _ := s.Seal([]byte("x"))
		sealed[len(sealed)-1] ^= 0xff
		_, err := s.Open(sealed)
		Expect(err).To(HaveOccurred())
	})

	It("rejects short input and bad key sizes", func() {
		s, _ := credential.NewSealer(testKey)
		_, err := s.Open([]byte("short"))
		Expect(err).To(MatchError(credential.ErrCiphertextTooShort))

		_, err = credential.NewSealer([]byte("too short"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Vault", func() {
	var (
		ctx   context.Context
		db    *mockCredentialStore
		vault *credential.Vault
		now   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newMockCredentialStore()
		sealer, err := credential.NewSealer(testKey)
		Expect(err).NotTo(HaveOccurred())
		now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		vault = credential.NewVault(db, sealer).WithClock(func() time.Time { return now })
	})

	It("stores sealed tokens and returns them opened", func() {
		exp := now.Add(time.Hour)
		Expect(vault.Store(ctx, model.Credential{
			Provider:     model.ProviderGmail,
			AccessToken:  "access",
			RefreshToken: ptr("refresh"),
			ExpiresAt:    &exp,
		})).To(Succeed())

		row := db.rows[model.ProviderGmail]
		Expect(string(row.AccessToken)).NotTo(Equal("access"))

		cred, err := vault.Get(ctx, model.ProviderGmail)
		Expect(err).NotTo(HaveOccurred())
		Expect(cred.AccessToken).To(Equal("access"))
		Expect(*cred.RefreshToken).To(Equal("refresh"))
	})

	It("picks up credential changes made through another vault on the same store", func() {
		sealer, err := credential.NewSealer(testKey)
		Expect(err).NotTo(HaveOccurred())
		other := credential.NewVault(db, sealer)

		Expect(vault.Store(ctx, model.Credential{Provider: model.ProviderGmail, AccessToken: "a"})).To(Succeed())
		Expect(other.Load(ctx)).To(Succeed())
		Expect(other.Connected().Has(model.ProviderGmail)).To(BeTrue())

		syncCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			other.Sync(syncCtx, 5*time.Millisecond)
		}()

		Expect(vault.Delete(ctx, model.ProviderGmail)).To(Succeed())
		Eventually(func() bool { return other.Connected().Has(model.ProviderGmail) }).Should(BeFalse())

		Expect(vault.Store(ctx, model.Credential{Provider: model.ProviderGitLab, AccessToken: "b"})).To(Succeed())
		Eventually(func() bool { return other.Connected().Has(model.ProviderGitLab) }).Should(BeTrue())

		cancel()
		Eventually(done).Should(BeClosed())
	})

	It("returns ErrNotFound for an unknown provider", func() {
		_, err := vault.Get(ctx, model.ProviderGitLab)
		Expect(errors.Is(err, store.ErrNotFound)).To(BeTrue())
		Expect(vault.IsValid(ctx, model.ProviderGitLab)).To(BeFalse())
	})

	It("judges validity by expiry", func() {
		past := now.Add(-time.Minute)
		Expect(vault.Store(ctx, model.Credential{Provider: model.ProviderGmail, AccessToken: "a", ExpiresAt: &past})).To(Succeed())
		Expect(vault.IsValid(ctx, model.ProviderGmail)).To(BeFalse())

		Expect(vault.Store(ctx, model.Credential{Provider: model.ProviderGitLab, AccessToken: "a"})).To(Succeed())
		Expect(vault.IsValid(ctx, model.ProviderGitLab)).To(BeTrue())
	})

	It("needs refresh only inside the lead time with a refresh token", func() {
		soon := now.Add(3 * time.Minute)
		Expect(vault.Store(ctx, model.Credential{Provider: model.ProviderGmail, AccessToken: "a", RefreshToken: ptr("r"), ExpiresAt: &soon})).To(Succeed())
		Expect(vault.NeedsRefresh(ctx, model.ProviderGmail, 5*time.Minute)).To(BeTrue())
		Expect(vault.NeedsRefresh(ctx, model.ProviderGmail, time.Minute)).To(BeFalse())

		Expect(vault.Store(ctx, model.Credential{Provider: model.ProviderGitLab, AccessToken: "a", ExpiresAt: &soon})).To(Succeed())
		Expect(vault.NeedsRefresh(ctx, model.ProviderGitLab, 5*time.Minute)).To(BeFalse())
	})

	It("republishes the connected set on store and delete", func() {
		before := vault.Connected()
		Expect(vault.Store(ctx, model.Credential{Provider: model.ProviderGmail, AccessToken: "a"})).To(Succeed())
		Expect(vault.Connected().Has(model.ProviderGmail)).To(BeTrue())
		Expect(before.Has(model.ProviderGmail)).To(BeFalse())

		Expect(vault.Delete(ctx, model.ProviderGmail)).To(Succeed())
		Expect(vault.Connected().Has(model.ProviderGmail)).To(BeFalse())
	})

	It("does not publish when the store write fails", func() {
		db.upsertFn = func(ctx context.Context, cred *model.SealedCredential) error { return errors.New("boom") }
		Expect(vault.Store(ctx, model.Credential{Provider: model.ProviderGmail, AccessToken: "a"})).NotTo(Succeed())
		Expect(vault.Connected().Has(model.ProviderGmail)).To(BeFalse())
	})

	It("loads the initial set from the store", func() {
		db.rows[model.ProviderGitLab] = model.SealedCredential{Provider: model.ProviderGitLab}
		Expect(vault.Load(ctx)).To(Succeed())
		Expect(vault.Connected().Has(model.ProviderGitLab)).To(BeTrue())
	})

	It("keeps every provider under concurrent stores", func() {
		var wg sync.WaitGroup
		for _, p := range []model.Provider{model.ProviderGmail, model.ProviderGitLab} {
			wg.Add(1)
			go func(p model.Provider) {
				defer GinkgoRecover()
				defer wg.Done()
				Expect(vault.Store(ctx, model.Credential{Provider: p, AccessToken: "a"})).To(Succeed())
			}(p)
		}
		wg.Wait()
		Expect(vault.Connected()).To(HaveLen(2))
	})
})
