package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/pkg/db/pagination"
)

var (
	ErrInvalidProject    = errors.New("invalid_project")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidIdentifier = errors.New("invalid_identifier")
	ErrInvalidTraitKey   = errors.New("invalid_trait_key")
	ErrInvalidSort       = errors.New("invalid_sort")
	ErrTraitNotInteger   = errors.New("trait_not_integer")
	ErrNotFound          = errors.New("environment_not_found")
	ErrIdentityNotFound  = errors.New("identity_not_found")
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Environment, error)
	Get(ctx context.Context, projectID, id snowflake.ID) (*Environment, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*Environment, error)
	ListByProject(ctx context.Context, projectID snowflake.ID) ([]Environment, error)
	Update(ctx context.Context, req UpdateRequest) (*Environment, error)
	Delete(ctx context.Context, projectID, id snowflake.ID) error

	// GetOrCreateIdentity resolves an identifier within an environment,
	// creating the identity on first sight (SDK semantics).
	GetOrCreateIdentity(ctx context.Context, environmentID snowflake.ID, identifier string) (*Identity, error)
	ListIdentities(ctx context.Context, req ListIdentitiesRequest) (*ListIdentitiesResponse, error)
	ListTraits(ctx context.Context, identityID snowflake.ID) ([]Trait, error)

	// UpsertTrait infers the value's type tag and creates or updates the
	// (identity, key) trait. A nil value deletes the trait; deleting an
	// absent trait is a no-op. The returned trait is nil on delete.
	UpsertTrait(ctx context.Context, req TraitRequest) (*Trait, error)
	// IncrementTrait adds delta to an integer trait, creating it with
	// value = delta when absent. A non-integer existing trait is
	// ErrTraitNotInteger.
	IncrementTrait(ctx context.Context, req IncrementRequest) (*Trait, error)
	// BulkUpsertTraits applies UpsertTrait per item. Items fail
	// independently; one bad item never rolls back its neighbours.
	BulkUpsertTraits(ctx context.Context, environmentID snowflake.ID, items []TraitRequest) []BulkTraitResult
}

type CreateRequest struct {
	ProjectID snowflake.ID `json:"project_id"`
	Name      string       `json:"name"`
}

type UpdateRequest struct {
	ProjectID snowflake.ID `json:"-"`
	ID        snowflake.ID `json:"-"`
	Name      *string      `json:"name,omitempty"`
}

type ListIdentitiesRequest struct {
	EnvironmentID snowflake.ID `json:"-"`
	// Q filters identifiers by substring match.
	Q         string `json:"q"`
	SortBy    string `json:"sort_by"`
	OrderBy   string `json:"order_by"`
	PageToken string `json:"page_token"`
	PageSize  int32  `json:"page_size"`
}

type ListIdentitiesResponse struct {
	Identities []Identity          `json:"identities"`
	PageInfo   pagination.PageInfo `json:"page_info"`
}

type TraitRequest struct {
	EnvironmentID snowflake.ID `json:"-"`
	Identifier    string       `json:"identifier"`
	Key           string       `json:"trait_key"`
	// Value is raw client input; nil means delete.
	Value any `json:"trait_value"`
}

type IncrementRequest struct {
	EnvironmentID snowflake.ID `json:"-"`
	Identifier    string       `json:"identifier"`
	Key           string       `json:"trait_key"`
	IncrementBy   int64        `json:"increment_by"`
}

// BulkTraitResult reports the outcome of one bulk item. Deleted items
// carry a nil Trait; failed items carry the error and leave the rest of
// the batch untouched.
type BulkTraitResult struct {
	Key     string `json:"trait_key"`
	Trait   *Trait `json:"trait,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
	Err     error  `json:"-"`
}
