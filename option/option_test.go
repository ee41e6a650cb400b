package option

import "testing"

func TestOption_IsValid(t *testing.T) {
	hash := &Option{Name: "Hash", Kind: Spin, Min: 1, Max: 4096}
	ponder := &Option{Name: "Ponder", Kind: Check}
	style := &Option{Name: "Style", Kind: Combo, Choices: []string{"Solid", "Normal", "Risky"}}
	clearHash := &Option{Name: "Clear Hash", Kind: Button}
	book := &Option{Name: "BookFile", Kind: String}

	tests := []struct {
		name string
		opt  *Option
		val  string
		want bool
	}{
		{"spin in range", hash, "128", true},
		{"spin low bound", hash, "1", true},
		{"spin high bound", hash, "4096", true},
		{"spin below", hash, "0", false},
		{"spin above", hash, "4097", false},
		{"spin not a number", hash, "lots", false},
		{"spin padded", hash, " 64 ", true},
		{"check true", ponder, "true", true},
		{"check false", ponder, "false", true},
		{"check other", ponder, "yes", false},
		{"combo member", style, "Risky", true},
		{"combo case", style, "risky", true},
		{"combo other", style, "Wild", false},
		{"button anything", clearHash, "", true},
		{"string anything", book, "/books/main.bin", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opt.IsValid(tt.val); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.val, got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"spin", Spin, false},
		{"-spin", Spin, false},
		{"-slider", Spin, false},
		{"check", Check, false},
		{"-check", Check, false},
		{"combo", Combo, false},
		{"button", Button, false},
		{"-save", Button, false},
		{"string", String, false},
		{"-file", String, false},
		{"-path", String, false},
		{"matrix", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOption_String(t *testing.T) {
	o := &Option{Name: "Hash", Kind: Spin, Min: 1, Max: 4096, Value: "16"}
	if got, want := o.String(), `Hash (spin) 1..4096 = "16"`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRegistry_LookupByNameAndAlias(t *testing.T) {
	r := NewRegistry()
	r.Add(&Option{Name: "Hash", Kind: Spin, Min: 1, Max: 4096, Default: "16"})
	r.Add(&Option{Name: "Threads", Alias: "cores", Kind: Spin, Min: 1, Max: 64, Default: "1"})

	if o := r.Lookup("Hash"); o == nil || o.Value != "16" {
		t.Fatalf("Lookup(Hash) = %+v", o)
	}
	if o := r.Lookup("cores"); o == nil || o.Name != "Threads" {
		t.Fatalf("Lookup(cores) = %+v", o)
	}
	if o := r.Lookup("Ponder"); o != nil {
		t.Errorf("Lookup(Ponder) = %+v, want nil", o)
	}
	if o := r.Lookup(""); o != nil {
		t.Errorf("empty alias must not match: %+v", o)
	}
}

func TestRegistry_RedeclareReplacesInPlace(t *testing.T) {
	r := NewRegistry()
	r.Add(&Option{Name: "Hash", Kind: Spin, Min: 1, Max: 1024})
	r.Add(&Option{Name: "Ponder", Kind: Check, Default: "false"})
	r.Add(&Option{Name: "Hash", Kind: Spin, Min: 1, Max: 4096})

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].Name != "Hash" || all[0].Max != 4096 {
		t.Errorf("first = %+v, want redeclared Hash", all[0])
	}
	if all[1].Name != "Ponder" || all[1].Value != "false" {
		t.Errorf("second = %+v", all[1])
	}
}

func TestRegistry_AllReturnsCopies(t *testing.T) {
	r := NewRegistry()
	r.Add(&Option{Name: "Style", Kind: Combo, Choices: []string{"Solid", "Risky"}})

	all := r.All()
	all[0].Value = "Risky"
	all[0].Choices[0] = "Wild"

	o := r.Lookup("Style")
	if o.Value != "" || o.Choices[0] != "Solid" {
		t.Errorf("registry mutated through copy: %+v", o)
	}
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len after Clear = %d", r.Len())
	}
}
