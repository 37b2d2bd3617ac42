package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/model"
)

func TestOptionsFromFlags(t *testing.T) {
	tests := []struct {
		name    string
		profile model.Profile
		flags   []string
		want    map[string]bool
		wantErr string
	}{
		{
			name:    "no options",
			profile: model.InsectProfile,
			want:    map[string]bool{},
		},
		{
			name:    "declared options enabled",
			profile: model.InsectProfile,
			flags:   []string{"taxonomy", "detailed_description"},
			want:    map[string]bool{"taxonomy": true, "detailed_description": true},
		},
		{
			name:    "building profile option",
			profile: model.BuildingProfile,
			flags:   []string{"period_accuracy"},
			want:    map[string]bool{"period_accuracy": true},
		},
		{
			name:    "unknown option is rejected",
			profile: model.InsectProfile,
			flags:   []string{"colorize"},
			wantErr: `unknown option "colorize"`,
		},
		{
			name:    "option from the wrong profile is rejected",
			profile: model.InsectProfile,
			flags:   []string{"period_accuracy"},
			wantErr: `unknown option "period_accuracy"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := classifyCmd()
			for _, flag := range tt.flags {
				require.NoError(t, cmd.Flags().Set("option", flag))
			}

			options, err := optionsFromFlags(cmd, tt.profile)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, options)
		})
	}
}

func TestOptionsFromFlags_UnknownOptionHintListsDeclaredKeys(t *testing.T) {
	cmd := classifyCmd()
	require.NoError(t, cmd.Flags().Set("option", "colorize"))

	_, err := optionsFromFlags(cmd, model.InsectProfile)
	require.Error(t, err)

	hint := common.HintOf(err)
	for _, key := range model.InsectProfile.OptionKeys() {
		assert.Contains(t, hint, key)
	}
}
