package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/saferunner/saferunner/internal/errors"
)

func TestBuildInviteLink(t *testing.T) {
	assert.Equal(t,
		"https://t.me/saferunner_bot?start=link_999",
		BuildInviteLink("saferunner_bot", 999))

	// Leading @ in the username is stripped.
	assert.Equal(t,
		"https://t.me/saferunner_bot?start=link_999",
		BuildInviteLink("@saferunner_bot", 999))
}

func TestBuildContactOfferLink(t *testing.T) {
	assert.Equal(t,
		"https://t.me/saferunner_bot?start=contact_42",
		BuildContactOfferLink("saferunner_bot", 42))
}

func TestBuildBundleLink(t *testing.T) {
	link, err := BuildBundleLink("saferunner_bot", []int64{1, 2, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/saferunner_bot?start=bundle_1_2_3", link)

	_, err = BuildBundleLink("saferunner_bot", []int64{1, 2, 3, 4, 5, 6, 7})
	assert.ErrorIs(t, err, apperrors.ErrBundleTooLarge)

	_, err = BuildBundleLink("saferunner_bot", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidLink)
}

func TestParseStartParam(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		want    StartParam
		wantErr error
	}{
		{
			name:  "plain start",
			param: "",
			want:  StartParam{Kind: StartPlain},
		},
		{
			name:  "authorize link",
			param: "link_999",
			want:  StartParam{Kind: StartAuthorize, OwnerID: 999},
		},
		{
			name:  "contact offer",
			param: "contact_42",
			want:  StartParam{Kind: StartAddContacts, ContactIDs: []int64{42}},
		},
		{
			name:  "bundle comma separated",
			param: "bundle_1,2,3",
			want:  StartParam{Kind: StartAddContacts, ContactIDs: []int64{1, 2, 3}},
		},
		{
			name:  "bundle underscore separated",
			param: "bundle_1_2_3",
			want:  StartParam{Kind: StartAddContacts, ContactIDs: []int64{1, 2, 3}},
		},
		{
			name:  "bundle dedupes preserving order",
			param: "bundle_5,3,5,3,1",
			want:  StartParam{Kind: StartAddContacts, ContactIDs: []int64{5, 3, 1}},
		},
		{
			name:  "bundle at the cap",
			param: "bundle_1,2,3,4,5,6",
			want:  StartParam{Kind: StartAddContacts, ContactIDs: []int64{1, 2, 3, 4, 5, 6}},
		},
		{
			name:    "bundle over the cap",
			param:   "bundle_1,2,3,4,5,6,7",
			wantErr: apperrors.ErrBundleTooLarge,
		},
		{
			name:    "bundle duplicates collapse under the cap",
			param:   "bundle_1,1,2,2,3,3,4",
			want:    StartParam{Kind: StartAddContacts, ContactIDs: []int64{1, 2, 3, 4}},
		},
		{
			name:    "empty bundle",
			param:   "bundle_",
			wantErr: apperrors.ErrInvalidLink,
		},
		{
			name:    "non numeric owner",
			param:   "link_abc",
			wantErr: apperrors.ErrInvalidLink,
		},
		{
			name:    "non numeric bundle id",
			param:   "bundle_1,x",
			wantErr: apperrors.ErrInvalidLink,
		},
		{
			name:    "unknown prefix",
			param:   "magic_1",
			wantErr: apperrors.ErrInvalidLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStartParam(tt.param)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
