package usecase

import (
	"context"

	"github.com/xavierca1/leadboard/internal/entity"
)

// CRMClient é o lado de leitura do CRM. Implementações podem retornar um prefixo
// dos dados junto com um erro.
type CRMClient interface {
	Users(ctx context.Context) ([]entity.Operator, error)
	Leads(ctx context.Context, q entity.LeadQuery) ([]entity.Lead, error)
}

// EventPublisher distribui mudanças de operador para um barramento ou clientes conectados.
type EventPublisher interface {
	PublishOperatorChanges(ctx context.Context, changes []entity.OperatorChange) error
}

type DigestSender interface {
	SendDigest(to []string, digest DigestData) error
}

type NopPublisher struct{}

func (NopPublisher) PublishOperatorChanges(context.Context, []entity.OperatorChange) error {
	return nil
}

// MultiPublisher publica em todos os publishers e retorna o primeiro erro.
type MultiPublisher []EventPublisher

func (m MultiPublisher) PublishOperatorChanges(ctx context.Context, changes []entity.OperatorChange) error {
	var first error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishOperatorChanges(ctx, changes); err != nil && first == nil {
			first = err
		}
	}
	return first
}
