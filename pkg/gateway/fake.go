package gateway

import (
	"context"
	"fmt"
	"sync"
)

// Call records one gateway invocation for assertions and demos.
type Call struct {
	Method string
	Args   []string
}

// Fake is an in-memory Gateway. It backs the test suites and the offline
// demo mode; no network calls are made.
type Fake struct {
	mu sync.Mutex

	Tenants       map[string]string // domain -> tenant id
	Sites         map[string]bool   // url -> exists
	Policies      map[string]CrossTenantPolicy
	Folders       map[string][]string // site url -> folder paths
	SiteUsers     map[string][]string // site url -> emails
	SentMail      []Mail
	Calls         []Call
	FailOn        map[string]error // method name -> injected error
	failOnceCount map[string]int
}

// NewFake returns an empty fake directory/site host.
func NewFake() *Fake {
	return &Fake{
		Tenants:       make(map[string]string),
		Sites:         make(map[string]bool),
		Policies:      make(map[string]CrossTenantPolicy),
		Folders:       make(map[string][]string),
		SiteUsers:     make(map[string][]string),
		FailOn:        make(map[string]error),
		failOnceCount: make(map[string]int),
	}
}

// FailAfter makes method fail with err, but only after n successful calls.
func (f *Fake) FailAfter(method string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailOn[method] = err
	f.failOnceCount[method] = n
}

func (f *Fake) record(method string, args ...string) error {
	f.Calls = append(f.Calls, Call{Method: method, Args: args})
	if err, ok := f.FailOn[method]; ok {
		if n, staged := f.failOnceCount[method]; staged && n > 0 {
			f.failOnceCount[method] = n - 1
			return nil
		}
		return err
	}
	return nil
}

// CallsTo returns the number of invocations of method.
func (f *Fake) CallsTo(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *Fake) ResolveTenantID(_ context.Context, domain string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ResolveTenantID", domain); err != nil {
		return "", err
	}
	id, ok := f.Tenants[domain]
	if !ok {
		return "", fmt.Errorf("tenant for %q: %w", domain, ErrNotFound)
	}
	return id, nil
}

func (f *Fake) SetCrossTenantPolicy(_ context.Context, tenantID string, policy CrossTenantPolicy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SetCrossTenantPolicy", tenantID); err != nil {
		return err
	}
	f.Policies[tenantID] = policy
	return nil
}

func (f *Fake) DeleteCrossTenantPolicy(_ context.Context, tenantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteCrossTenantPolicy", tenantID); err != nil {
		return err
	}
	if _, ok := f.Policies[tenantID]; !ok {
		return fmt.Errorf("policy for %q: %w", tenantID, ErrNotFound)
	}
	delete(f.Policies, tenantID)
	return nil
}

func (f *Fake) SiteExists(_ context.Context, url string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SiteExists", url); err != nil {
		return false, err
	}
	return f.Sites[url], nil
}

func (f *Fake) CreateSite(_ context.Context, title, alias string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateSite", title, alias); err != nil {
		return "", err
	}
	url := "https://host.example.com/sites/" + alias
	f.Sites[url] = true
	return url, nil
}

func (f *Fake) DeleteSite(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteSite", url); err != nil {
		return err
	}
	if !f.Sites[url] {
		return fmt.Errorf("site %q: %w", url, ErrNotFound)
	}
	delete(f.Sites, url)
	delete(f.Folders, url)
	delete(f.SiteUsers, url)
	return nil
}

func (f *Fake) CreateFolder(_ context.Context, siteURL, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateFolder", siteURL, path); err != nil {
		return err
	}
	f.Folders[siteURL] = append(f.Folders[siteURL], path)
	return nil
}

func (f *Fake) InviteGuest(_ context.Context, siteURL, email string, level AccessLevel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InviteGuest", siteURL, email, string(level)); err != nil {
		return err
	}
	f.SiteUsers[siteURL] = append(f.SiteUsers[siteURL], email)
	return nil
}

func (f *Fake) RemoveUser(_ context.Context, siteURL, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RemoveUser", siteURL, email); err != nil {
		return err
	}
	users := f.SiteUsers[siteURL]
	for i, u := range users {
		if u == email {
			f.SiteUsers[siteURL] = append(users[:i], users[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("user %q on %q: %w", email, siteURL, ErrNotFound)
}

func (f *Fake) GrantHostAccess(_ context.Context, siteURL, email string, level AccessLevel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GrantHostAccess", siteURL, email, string(level)); err != nil {
		return err
	}
	f.SiteUsers[siteURL] = append(f.SiteUsers[siteURL], email)
	return nil
}

func (f *Fake) SendMail(_ context.Context, mail Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SendMail", mail.Recipient); err != nil {
		return err
	}
	f.SentMail = append(f.SentMail, mail)
	return nil
}
