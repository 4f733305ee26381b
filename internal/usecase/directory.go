package usecase

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/infra/cache"
)

// Directory resolve ids de operador em nomes, atualizando a lista de usuários
// do CRM no máximo uma vez por TTL.
type Directory struct {
	snap *cache.Snapshot[entity.OperatorNames]
}

func NewDirectory(crm CRMClient, ttl time.Duration, obs cache.Observer) *Directory {
	load := func(ctx context.Context) (entity.OperatorNames, error) {
		users, err := crm.Users(ctx)
		if err != nil {
			return nil, err
		}
		names := make(entity.OperatorNames, len(users))
		for _, u := range users {
			names[u.ID] = u.Name
		}
		return names, nil
	}
	return &Directory{snap: cache.NewSnapshot(ttl, load, obs)}
}

// Names nunca falha: sem lista de usuários, os operadores aparecem pelo id.
func (d *Directory) Names(ctx context.Context) entity.OperatorNames {
	names, _, err := d.snap.Get(ctx)
	if err != nil {
		log.Printf("⚠️ directory: user list unavailable: %v", err)
		return entity.OperatorNames{}
	}
	return names
}
