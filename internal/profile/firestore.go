package profile

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sadopc/gymbuddy/internal/store"
)

const usersCollection = "users"

// Firestore reads the mobile app's users/{uid} document. Read only.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (f *Firestore) Fetch(ctx context.Context, userID string) (*store.Profile, error) {
	snap, err := f.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, fetchError(userID, err)
	}
	p := decodeUserDoc(snap.Data())
	p.UserID = userID
	return p, nil
}

func fetchError(userID string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("fetch %q: %w", userID, ErrNotFound)
	}
	return fmt.Errorf("fetch %q: %w", userID, err)
}

// decodeUserDoc maps the app's document fields. Missing or mistyped fields
// stay zero.
func decodeUserDoc(data map[string]any) *store.Profile {
	p := &store.Profile{
		WeightKg:    number(data["pesoAtual"]),
		HeightCm:    int(number(data["alturaAtual"])),
		ActiveStart: str(data["periodoAtivoInicio"]),
		ActiveEnd:   str(data["periodoAtivoFim"]),
		WeeklyGoal:  int(number(data["metaFrequencia"])),
		Name:        str(data["nome"]),
	}

	switch strings.ToLower(str(data["sexo"])) {
	case "masculino", "male":
		p.Sex = SexMale
	case "feminino", "female":
		p.Sex = SexFemale
	}

	switch str(data["metaTipo"]) {
	case "perda_peso", GoalLoseWeight:
		p.GoalType = GoalLoseWeight
	case "ganho_peso", GoalGainWeight:
		p.GoalType = GoalGainWeight
	}
	return p
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
