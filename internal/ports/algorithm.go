package ports

import (
	"context"

	"github.com/bnema/loopctl/internal/domain"
)

type Algorithm interface {
	Run(ctx context.Context, input domain.AlgorithmInput) (domain.AlgorithmOutput, error)
}
