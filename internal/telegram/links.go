package telegram

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/saferunner/saferunner/internal/errors"
)

// MaxBundleContacts caps how many contact ids a bundle link may carry.
const MaxBundleContacts = 6

const (
	linkPrefix    = "link_"
	contactPrefix = "contact_"
	bundlePrefix  = "bundle_"
)

// StartKind discriminates the deep-link intents a /start parameter can
// carry.
type StartKind int

const (
	// StartPlain is a bare /start with no parameter.
	StartPlain StartKind = iota
	// StartAuthorize adds the clicking chat to the owner's contact list.
	StartAuthorize
	// StartAddContacts adds the carried ids to the clicking user's own
	// contact list (single offer or bundle).
	StartAddContacts
)

// StartParam is a parsed /start deep-link parameter.
type StartParam struct {
	Kind StartKind

	// OwnerID is set for StartAuthorize.
	OwnerID int64

	// ContactIDs is set for StartAddContacts, de-duplicated and
	// order-preserving.
	ContactIDs []int64
}

// BuildInviteLink returns the deep link an owner shares so clickers
// become their authorized contacts.
func BuildInviteLink(botUsername string, ownerID int64) string {
	return deepLink(botUsername, fmt.Sprintf("%s%d", linkPrefix, ownerID))
}

// BuildContactOfferLink returns the deep link that offers contactID as a
// contact: whoever opens it adds contactID to their own list.
func BuildContactOfferLink(botUsername string, contactID int64) string {
	return deepLink(botUsername, fmt.Sprintf("%s%d", contactPrefix, contactID))
}

// BuildBundleLink returns a deep link offering several contacts at once.
// Ids are de-duplicated preserving order; more than MaxBundleContacts
// distinct ids is an error. Underscore separation, since Telegram start
// payloads only allow [A-Za-z0-9_-].
func BuildBundleLink(botUsername string, ids []int64) (string, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return "", apperrors.ErrInvalidLink
	}
	if len(unique) > MaxBundleContacts {
		return "", apperrors.ErrBundleTooLarge
	}

	parts := make([]string, len(unique))
	for i, id := range unique {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return deepLink(botUsername, bundlePrefix+strings.Join(parts, "_")), nil
}

// ParseStartParam decodes a /start parameter. An empty parameter is the
// plain greeting; unrecognized or malformed parameters are errors so the
// user gets told the link is bad rather than being silently greeted.
func ParseStartParam(param string) (StartParam, error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return StartParam{Kind: StartPlain}, nil
	}

	switch {
	case strings.HasPrefix(param, linkPrefix):
		owner, err := strconv.ParseInt(param[len(linkPrefix):], 10, 64)
		if err != nil {
			return StartParam{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidLink, param)
		}
		return StartParam{Kind: StartAuthorize, OwnerID: owner}, nil

	case strings.HasPrefix(param, contactPrefix):
		contact, err := strconv.ParseInt(param[len(contactPrefix):], 10, 64)
		if err != nil {
			return StartParam{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidLink, param)
		}
		return StartParam{Kind: StartAddContacts, ContactIDs: []int64{contact}}, nil

	case strings.HasPrefix(param, bundlePrefix):
		ids, err := parseBundleIDs(param[len(bundlePrefix):])
		if err != nil {
			return StartParam{}, err
		}
		return StartParam{Kind: StartAddContacts, ContactIDs: ids}, nil

	default:
		return StartParam{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidLink, param)
	}
}

// parseBundleIDs splits a bundle id list. Telegram deep links cannot
// always carry commas, so underscores are accepted as a separator too.
func parseBundleIDs(raw string) ([]int64, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '_'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty bundle", apperrors.ErrInvalidLink)
	}

	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bundle id %q", apperrors.ErrInvalidLink, f)
		}
		ids = append(ids, id)
	}

	ids = dedupe(ids)
	if len(ids) > MaxBundleContacts {
		return nil, apperrors.ErrBundleTooLarge
	}
	return ids, nil
}

func deepLink(botUsername, param string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", strings.TrimPrefix(botUsername, "@"), param)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
