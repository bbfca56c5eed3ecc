package correlation

import (
	"database/sql"
	"testing"
)

func TestMarshalIdentity(t *testing.T) {
	got, err := marshalIdentity(Identity{UserID: "alice", Token: "tok"})
	if err != nil {
		t.Fatalf("marshalIdentity() failed: %v", err)
	}
	want := `{"userId":"alice","token":"tok"}`
	if got != want {
		t.Errorf("marshalIdentity() = %s, want %s", got, want)
	}
}

func TestMarshalIdentity_OmitsEmptyToken(t *testing.T) {
	got, err := marshalIdentity(Identity{UserID: "alice"})
	if err != nil {
		t.Fatalf("marshalIdentity() failed: %v", err)
	}
	want := `{"userId":"alice"}`
	if got != want {
		t.Errorf("marshalIdentity() = %s, want %s", got, want)
	}
}

func TestUnmarshalIdentity(t *testing.T) {
	cases := []struct {
		name string
		data sql.NullString
		want Identity
	}{
		{
			name: "full payload",
			data: sql.NullString{String: `{"userId":"alice","token":"tok"}`, Valid: true},
			want: Identity{UserID: "alice", Token: "tok"},
		},
		{
			name: "null column",
			data: sql.NullString{},
			want: Identity{},
		},
		{
			name: "empty string",
			data: sql.NullString{String: "", Valid: true},
			want: Identity{},
		},
		{
			name: "empty object",
			data: sql.NullString{String: "{}", Valid: true},
			want: Identity{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := unmarshalIdentity(tc.data)
			if err != nil {
				t.Fatalf("unmarshalIdentity() failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("unmarshalIdentity() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalIdentity_Malformed(t *testing.T) {
	_, err := unmarshalIdentity(sql.NullString{String: "not json", Valid: true})
	if err == nil {
		t.Error("unmarshalIdentity() succeeded on malformed payload")
	}
}

func TestExecutionErrorRoundTrip(t *testing.T) {
	in := ExecutionError{Name: "BpmnError", Code: "E42", Message: "gateway stalled"}

	encoded, err := marshalExecutionError(in)
	if err != nil {
		t.Fatalf("marshalExecutionError() failed: %v", err)
	}

	out, err := unmarshalExecutionError(sql.NullString{String: encoded, Valid: true})
	if err != nil {
		t.Fatalf("unmarshalExecutionError() failed: %v", err)
	}
	if out == nil {
		t.Fatal("unmarshalExecutionError() = nil, want payload")
	}
	if *out != in {
		t.Errorf("round trip = %+v, want %+v", *out, in)
	}
}

func TestUnmarshalExecutionError_NullIsNil(t *testing.T) {
	out, err := unmarshalExecutionError(sql.NullString{})
	if err != nil {
		t.Fatalf("unmarshalExecutionError() failed: %v", err)
	}
	if out != nil {
		t.Errorf("unmarshalExecutionError(NULL) = %+v, want nil", out)
	}
}

func TestUnmarshalExecutionError_Malformed(t *testing.T) {
	_, err := unmarshalExecutionError(sql.NullString{String: "{broken", Valid: true})
	if err == nil {
		t.Error("unmarshalExecutionError() succeeded on malformed payload")
	}
}
