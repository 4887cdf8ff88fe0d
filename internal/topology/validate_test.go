package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		opts    ValidateOptions
		wantErr []string
	}{
		{
			name: "clean",
			state: State{
				Nodes: []Node{{ID: "0"}, {ID: "1"}},
				Edges: []Edge{{ID: "e", Source: "0", Target: "1"}},
			},
			opts: ValidateOptions{RequireSequentialIDs: true},
		},
		{
			name: "dangling edge",
			state: State{
				Nodes: []Node{{ID: "0"}},
				Edges: []Edge{{ID: "e", Source: "0", Target: "7"}},
			},
			wantErr: []string{`edge "e": target "7" does not exist`},
		},
		{
			name:    "duplicate ids",
			state:   State{Nodes: []Node{{ID: "a"}, {ID: "a"}}},
			wantErr: []string{`duplicate node id "a"`},
		},
		{
			name:    "ids out of sequence",
			state:   State{Nodes: []Node{{ID: "0"}, {ID: "2"}}},
			opts:    ValidateOptions{RequireSequentialIDs: true},
			wantErr: []string{`got "2", expected "1"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.state, tt.opts)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			for _, want := range tt.wantErr {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}
