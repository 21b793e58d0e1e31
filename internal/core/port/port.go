package port

import (
	"context"
	"sync"
	"time"

	"github.com/niksmo/prime-house/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Inbound

type PropertiesReader interface {
	ListProperties(ctx context.Context, filter any, search string) (domain.CatalogView, error)
	Property(ctx context.Context, id string) (domain.Property, error)
	Status() domain.CatalogStatus
}

type PropertiesWatcher interface {
	Watch(context.Context) <-chan []domain.Property
}

type PropertiesEditor interface {
	SaveProperty(context.Context, domain.Identity, domain.PropertyDraft) (string, error)
	DeleteProperty(ctx context.Context, who domain.Identity, id string) error
	ClearGallery(ctx context.Context, who domain.Identity, id string) error
}

type LeadsCreator interface {
	CreateLead(context.Context, domain.LeadDraft) (domain.Lead, error)
}

type LeadsLister interface {
	ListLeads(context.Context, domain.Identity) ([]domain.Lead, error)
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

// Outbound

// PropertiesSubscriber delivers the full current collection to onChange on
// every change and subscription failures to onError. It blocks until ctx is
// done and is responsible for its own reconnects.
type PropertiesSubscriber interface {
	Subscribe(
		ctx context.Context,
		onChange func([]domain.Property),
		onError func(error),
	)
}

type PropertyCommandEmitter interface {
	EmitCommand(context.Context, domain.PropertyCommand) error
}

type PropertiesProcessor interface {
	runnerContextWg
	closer
}

type LeadsStorage interface {
	StoreLead(context.Context, domain.Lead) error
	ReadLeads(context.Context) ([]domain.Lead, error)
}

type TokenService interface {
	IssueToken(email string, ttl time.Duration) (token string, expiresAt time.Time, err error)
	ParseToken(token string) (email string, err error)
}

type PasswordVerifier interface {
	VerifyPassword(email, password string) error
}

// DocumentSizer reports the encoded size of a property document.
type DocumentSizer interface {
	DocumentSize(domain.Property) (int, error)
}
