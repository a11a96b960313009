package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clintecker/hector/pkg/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lowercases", "Sam", "sam", false},
		{"single char", "a", "a", false},
		{"sixteen chars", strings.Repeat("a", 16), strings.Repeat("a", 16), false},
		{"seventeen chars", strings.Repeat("a", 17), "", true},
		{"empty", "", "", true},
		{"leading hyphen", "-sam", "", true},
		{"inner hyphen", "sam-x", "sam-x", false},
		{"underscore", "_sam", "_sam", false},
		{"digit first", "9lives", "9lives", false},
		{"space", "sam x", "", true},
		{"punctuation", "sam!", "", true},
		{"unicode letters", "Ñoño", "ñoño", false},
		{"decimal digit", "x٣", "x٣", false},
		{"letter number", "Ⅻ", "ⅻ", false},
		{"superscript digit", "x²", "", true},
		{"vulgar fraction", "x½", "", true},
		{"channel prefix", "#sam", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrErroneousNickname) {
					t.Fatalf("Normalize(%q) error = %v, want ErrErroneousNickname", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			again, err := Normalize(got)
			if err != nil || again != got {
				t.Errorf("Normalize not idempotent: %q -> %q (%v)", got, again, err)
			}
		})
	}
}

func TestRegistryCreateUniqueness(t *testing.T) {
	req := require.New(t)
	r := newTestRegistry(nil)

	first, _ := mustCreate(r, "sam", "sam", "Sam")

	for _, variant := range []string{"sam", "Sam", "SAM"} {
		_, err := r.Create(variant, &fakeConn{}, &model.Identity{Username: "other"}, "Other")
		req.ErrorIs(err, ErrNicknameInUse)
		var nameErr *NameError
		req.ErrorAs(err, &nameErr)
		req.Equal(variant, nameErr.Name)
	}

	req.Same(first, r.Find("SaM"))
	req.Equal(1, r.Len())

	r.Delete("SAM")
	req.Nil(r.Find("sam"))
	_, err := r.Create("Sam", &fakeConn{}, &model.Identity{Username: "other"}, "Other")
	req.NoError(err)
}

func TestRegistryCreateInvalid(t *testing.T) {
	req := require.New(t)
	r := newTestRegistry(nil)

	_, err := r.Create("bad nick", &fakeConn{}, &model.Identity{Username: "u"}, "")
	req.ErrorIs(err, ErrErroneousNickname)
	req.Zero(r.Len())
}

func TestRegistryFindUnknown(t *testing.T) {
	r := newTestRegistry(nil)
	if s := r.Find("nobody"); s != nil {
		t.Errorf("Find(nobody) = %v, want nil", s)
	}
	if s := r.Find("not valid!"); s != nil {
		t.Errorf("Find(invalid) = %v, want nil", s)
	}
}

func TestRegistryRename(t *testing.T) {
	req := require.New(t)
	r := newTestRegistry(nil)
	sam, _ := mustCreate(r, "sam", "sam", "Sam")
	bob, _ := mustCreate(r, "bob", "bob", "Bob")

	got, err := r.Rename("sam", "samuel")
	req.NoError(err)
	req.Same(sam, got)
	req.Nil(r.Find("sam"))
	req.Same(sam, r.Find("samuel"))

	_, err = r.Rename("samuel", "BOB")
	req.ErrorIs(err, ErrNicknameInUse)
	req.Same(sam, r.Find("samuel"))
	req.Same(bob, r.Find("bob"))
	req.Equal(2, r.Len())

	_, err = r.Rename("samuel", "bad name")
	req.ErrorIs(err, ErrErroneousNickname)
	req.Same(sam, r.Find("samuel"))

	_, err = r.Rename("ghost", "casper")
	req.ErrorIs(err, ErrNotRegistered)
	req.Nil(r.Find("casper"))

	// Case-only change of one's own nickname.
	got, err = r.Rename("samuel", "Samuel")
	req.NoError(err)
	req.Same(sam, got)
	req.Same(sam, r.Find("samuel"))
	req.Equal(2, r.Len())
}

func TestRegistryNicknamesAndReset(t *testing.T) {
	req := require.New(t)
	r := newTestRegistry(nil)
	mustCreate(r, "Sam", "sam", "")
	mustCreate(r, "bob", "bob", "")

	names := r.Nicknames()
	sort.Strings(names)
	req.Equal([]string{"bob", "sam"}, names)
	req.Equal(2, r.Len())

	r.Reset()
	req.Empty(r.Nicknames())
	req.Nil(r.Find("sam"))
}

func TestRegistryConcurrentCreate(t *testing.T) {
	r := newTestRegistry(nil)

	const workers = 32
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nick := "racer"
			if i%2 == 1 {
				nick = "RACER"
			}
			_, err := r.Create(nick, &fakeConn{}, &model.Identity{Username: "u"}, "")
			switch {
			case err == nil:
				mu.Lock()
				wins++
				mu.Unlock()
			case !errors.Is(err, ErrNicknameInUse):
				t.Errorf("Create: unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful Create, got %d", wins)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one registered session, got %d", r.Len())
	}
}

func TestRegistryConcurrentRenameAndCreate(t *testing.T) {
	const (
		renamers = 8
		rounds   = 200
	)
	for round := 0; round < rounds; round++ {
		r := newTestRegistry(nil)
		sessions := make([]*Session, renamers)
		for i := range sessions {
			sessions[i], _ = mustCreate(r, fmt.Sprintf("user%d", i), "u", "")
		}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			wins    int
			created bool
		)
		record := func(err error, create bool) {
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
				created = created || create
			case !errors.Is(err, ErrNicknameInUse):
				t.Errorf("unexpected error: %v", err)
			}
		}
		for i, s := range sessions {
			wg.Add(1)
			go func(i int, s *Session) {
				defer wg.Done()
				target := "Target"
				if i%2 == 1 {
					target = "TARGET"
				}
				record(s.Rename(target), false)
			}(i, s)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Create("target", &fakeConn{}, &model.Identity{Username: "t"}, "")
			record(err, true)
		}()
		wg.Wait()

		if wins != 1 {
			t.Fatalf("round %d: expected exactly one owner of the target, got %d", round, wins)
		}
		wantLen := renamers
		if created {
			wantLen++
		}
		if r.Len() != wantLen {
			t.Fatalf("round %d: expected %d sessions, got %d", round, wantLen, r.Len())
		}

		r.mu.RLock()
		for key, s := range r.sessions {
			if got, _ := Normalize(s.Nickname()); got != key {
				t.Errorf("round %d: session %q registered under %q", round, s.Nickname(), key)
			}
		}
		r.mu.RUnlock()
		if r.Find("target") == nil {
			t.Fatalf("round %d: target is not registered", round)
		}
	}
}

func TestRegistryScenario(t *testing.T) {
	req := require.New(t)
	r := newTestRegistry(nil)
	req.Zero(r.Len())

	id1 := &model.Identity{Username: "sam"}
	sam, err := r.Create("sam", &fakeConn{}, id1, "Sam")
	req.NoError(err)

	_, err = r.Create("Sam", &fakeConn{}, &model.Identity{Username: "other"}, "Other")
	req.ErrorIs(err, ErrNicknameInUse)

	_, err = r.Rename("sam", "samuel")
	req.NoError(err)

	req.Nil(r.Find("sam"))
	found := r.Find("samuel")
	req.Same(sam, found)
	req.Equal("sam", found.Username())
	req.Same(id1, found.Identity())
}
