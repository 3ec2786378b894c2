// Package binder ties an editable form to one API resource: it seeds an edit buffer from
// the cached record, sends creates, updates and deletes, refetches the resource afterwards
// and reports the outcome to the operator.
package binder

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/aTrapDeer/portfolio-admin/internal/apiclient"
	"github.com/aTrapDeer/portfolio-admin/internal/content"
	"github.com/aTrapDeer/portfolio-admin/internal/media"
	"github.com/aTrapDeer/portfolio-admin/internal/notify"
	"github.com/aTrapDeer/portfolio-admin/internal/querycache"
)

var (
	// ErrUnsupported is returned for operations the resource has no endpoint for.
	ErrUnsupported = errors.New("operation not supported by resource")

	// ErrUnauthenticated means the API rejected the session; callers redirect to login
	// instead of showing a toast.
	ErrUnauthenticated = errors.New("session rejected by API")
)

// ValidationError carries the field errors of a rejected edit buffer.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// API is the part of the HTTP client the binder needs.
type API interface {
	GetJSON(ctx context.Context, path string, out any) error
	SendJSON(ctx context.Context, method, path string, body, out any) error
	Delete(ctx context.Context, path string) error
	Upload(ctx context.Context, path, filename string, file io.Reader) (apiclient.UploadResult, error)
}

// Deps are shared by every binder of the dashboard.
type Deps struct {
	API      API
	Store    *querycache.Store
	Notifier notify.Notifier
	Drafts   *Drafts
	Limits   media.Limits
	// Site is told about every confirmed write so the public site can rebuild. Optional.
	Site Revalidator
}

// Revalidator refreshes whatever renders the resource publicly.
type Revalidator interface {
	Revalidate(ctx context.Context, key querycache.Key)
}

// Binder is the one form component, parameterized by the record type and its Resource.
type Binder[T any] struct {
	res Resource[T]
	Deps
}

// New builds a binder and registers the resource's fetcher with the store.
func New[T any](res Resource[T], deps Deps) *Binder[T] {
	b := &Binder[T]{res: res.withDefaults(), Deps: deps}
	deps.Store.Register(res.Key, b.fetch)
	return b
}

func (b *Binder[T]) Resource() Resource[T] { return b.res }

func (b *Binder[T]) fetch(ctx context.Context) (any, error) {
	if b.res.Singleton {
		var v T
		err := b.API.GetJSON(ctx, b.res.ReadPath, &v)
		return v, err
	}
	var list content.List[T]
	err := b.API.GetJSON(ctx, b.res.ReadPath, &list)
	if list.Data == nil {
		list.Data = []T{}
	}
	return list, err
}

// Page reads a singleton resource.
func (b *Binder[T]) Page(ctx context.Context) (value T, entry querycache.Entry, err error) {
	if !b.res.Singleton {
		err = errors.Wrapf(ErrUnsupported, "%s is a collection", b.res.Key)
		return value, entry, err
	}
	value, entry, err = querycache.Typed[T](ctx, b.Store, b.res.Key)
	err = b.readErr(err)
	return value, entry, err
}

// List reads a collection resource.
func (b *Binder[T]) List(ctx context.Context) (list content.List[T], entry querycache.Entry, err error) {
	if b.res.Singleton {
		err = errors.Wrapf(ErrUnsupported, "%s is a singleton", b.res.Key)
		return list, entry, err
	}
	list, entry, err = querycache.Typed[content.List[T]](ctx, b.Store, b.res.Key)
	err = b.readErr(err)
	return list, entry, err
}

// Find looks id up in the cached collection.
func (b *Binder[T]) Find(ctx context.Context, id content.ID) (item T, found bool, err error) {
	var list content.List[T]
	list, _, err = b.List(ctx)
	if err != nil {
		return item, found, err
	}
	for _, candidate := range list.Data {
		if b.res.ID(candidate) == id {
			return candidate, true, err
		}
	}
	return item, found, err
}

func (b *Binder[T]) readErr(err error) error {
	if err != nil && apiclient.IsUnauthorized(err) {
		return errors.Wrap(ErrUnauthenticated, err.Error())
	}
	return err
}

// Edit returns the session's edit buffer for id ("" for a singleton or a new record).
// A buffer survives re-renders of the same fetch; a fresh fetch reseeds it.
func (b *Binder[T]) Edit(ctx context.Context, sessionID string, id content.ID) (draft Draft[T], err error) {
	held, hasDraft := getDraft[T](b.Drafts, sessionID, b.res.Key, id)

	if !b.res.Singleton && id == "" {
		if hasDraft {
			return held, err
		}
		draft = Draft[T]{Value: b.res.Seed(b.res.New())}
		return draft, err
	}

	var (
		value T
		entry querycache.Entry
	)
	if b.res.Singleton {
		value, entry, err = b.Page(ctx)
	} else {
		var list content.List[T]
		list, entry, err = b.List(ctx)
		found := false
		for _, candidate := range list.Data {
			if b.res.ID(candidate) == id {
				value, found = candidate, true
				break
			}
		}
		if err == nil && !found {
			err = errors.Wrapf(ErrNotFound, "%s %s", b.res.Key, id)
		}
	}
	if err != nil {
		return draft, err
	}

	if hasDraft && !held.Stale(entry.Version) {
		return held, err
	}
	draft = Draft[T]{Value: b.res.Seed(value), ID: id, SeededVersion: entry.Version}
	putDraft(b.Drafts, sessionID, b.res.Key, draft)
	return draft, err
}

// ErrNotFound is returned by Edit for ids the collection does not hold.
var ErrNotFound = errors.New("record not found")

// Keep stores the buffer as the session's local state, e.g. after a rejected submit.
func (b *Binder[T]) Keep(sessionID string, draft Draft[T]) {
	putDraft(b.Drafts, sessionID, b.res.Key, draft)
}

// Discard drops the session's buffer for id.
func (b *Binder[T]) Discard(sessionID string, id content.ID) {
	b.Drafts.Discard(sessionID, b.res.Key, id)
}

// Submit validates the buffer and sends it: an update when the buffer is bound to an id
// (or the resource is a singleton), a create otherwise. On success the resource is
// refetched and the buffer discarded.
func (b *Binder[T]) Submit(ctx context.Context, sessionID string, draft Draft[T]) (err error) {
	creating := !b.res.Singleton && draft.ID == ""

	if v, ok := any(draft.Value).(validation.Validatable); ok {
		if verr := v.Validate(); verr != nil {
			b.Keep(sessionID, draft)
			b.Notifier.Push(sessionID, notify.Failed(verr.Error()))
			return &ValidationError{Err: verr}
		}
	}

	payload := b.res.Prepare(draft.Value)

	var (
		method, path    string
		success, failed string
	)
	switch {
	case creating:
		if b.res.CreatePath == "" {
			return errors.Wrapf(ErrUnsupported, "create %s", b.res.Key)
		}
		method, path = http.MethodPost, b.res.CreatePath
		success, failed = b.res.Messages.Created, b.res.Messages.CreateFailed
	default:
		if b.res.UpdatePath == "" {
			return errors.Wrapf(ErrUnsupported, "update %s", b.res.Key)
		}
		method, path = b.res.UpdateMethod, b.res.UpdatePath
		if !b.res.Singleton {
			path = joinPath(path, draft.ID)
		}
		success, failed = b.res.Messages.Updated, b.res.Messages.UpdateFailed
	}

	err = b.API.SendJSON(ctx, method, path, payload, nil)
	if err != nil {
		b.Keep(sessionID, draft)
		return b.failed(sessionID, err, failed)
	}

	b.Discard(sessionID, draft.ID)
	b.refetch(ctx)
	b.Notifier.Push(sessionID, notify.Succeeded(success))
	return err
}

// Delete removes a collection record.
func (b *Binder[T]) Delete(ctx context.Context, sessionID string, id content.ID) (err error) {
	if b.res.Singleton || b.res.DeletePath == "" {
		return errors.Wrapf(ErrUnsupported, "delete %s", b.res.Key)
	}

	err = b.API.Delete(ctx, joinPath(b.res.DeletePath, id))
	if err != nil {
		return b.failed(sessionID, err, b.res.Messages.DeleteFailed)
	}

	b.Discard(sessionID, id)
	b.refetch(ctx)
	b.Notifier.Push(sessionID, notify.Succeeded(b.res.Messages.Deleted))
	return err
}

// Action sends one of the resource's extra record operations, e.g. approving a testimony.
func (b *Binder[T]) Action(ctx context.Context, sessionID string, id content.ID, name string, body any) (err error) {
	action, ok := b.res.Actions[name]
	if !ok || b.res.Singleton {
		return errors.Wrapf(ErrUnsupported, "%s on %s", name, b.res.Key)
	}

	path := joinPath(b.res.DeletePath, id) + "/" + action.Path
	err = b.API.SendJSON(ctx, action.Method, path, body, nil)
	if err != nil {
		return b.failed(sessionID, err, action.Failed)
	}

	b.refetch(ctx)
	b.Notifier.Push(sessionID, notify.Succeeded(action.Succeeded))
	return err
}

// UploadImage sends file to the media endpoint and binds the returned URL into slot of the
// buffer. The resource itself is unchanged until the buffer is submitted.
func (b *Binder[T]) UploadImage(ctx context.Context, sessionID string, draft Draft[T], slot int, filename string, file io.Reader) (updated Draft[T], err error) {
	updated = draft
	if b.res.UploadPath == "" || b.res.BindImage == nil {
		err = errors.Wrapf(ErrUnsupported, "image upload for %s", b.res.Key)
		return updated, err
	}

	var prepared media.Prepared
	prepared, err = media.Prepare(file, filename, b.Limits)
	if err != nil {
		b.Notifier.Push(sessionID, notify.Failed(b.res.Messages.UploadFailed))
		return updated, err
	}

	var result apiclient.UploadResult
	result, err = b.API.Upload(ctx, b.res.UploadPath, prepared.Filename, bytes.NewReader(prepared.Data))
	if err != nil {
		return updated, b.failed(sessionID, err, b.res.Messages.UploadFailed)
	}

	err = b.res.BindImage(&updated.Value, slot, result.URL)
	if err != nil {
		b.Notifier.Push(sessionID, notify.Failed(err.Error()))
		return draft, err
	}

	b.Keep(sessionID, updated)
	b.Notifier.Push(sessionID, notify.Succeeded(b.res.Messages.Uploaded))
	return updated, err
}

// failed reports a mutation failure. Authentication failures are not toasted: the caller
// sends the operator back to the login view.
func (b *Binder[T]) failed(sessionID string, err error, fallback string) error {
	if apiclient.IsUnauthorized(err) {
		return errors.Wrap(ErrUnauthenticated, err.Error())
	}
	log.Warn().Err(err).Str("resource", string(b.res.Key)).Msg(fallback)
	b.Notifier.Push(sessionID, notify.Failed(apiclient.MessageOr(err, fallback)))
	return err
}

// refetch invalidates the resource once the API has confirmed a write.
func (b *Binder[T]) refetch(ctx context.Context) {
	if err := b.Store.Invalidate(ctx, b.res.Key); err != nil {
		log.Warn().Err(err).Str("resource", string(b.res.Key)).Msg("refetch after write failed")
	}
	if b.Site != nil {
		b.Site.Revalidate(ctx, b.res.Key)
	}
}

func joinPath(base string, id content.ID) string {
	return strings.TrimRight(base, "/") + "/" + string(id)
}
