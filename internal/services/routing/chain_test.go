package routing

import (
	"testing"

	"upiroute/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(id, custodian uint, bank string, score float64) *ScoredChannel {
	return &ScoredChannel{
		Channel: &models.Channel{ID: id, CustodianID: custodian, BankName: bank},
		Score:   score,
	}
}

func TestBuildChain_PrefersCustodianAndBankDiversity(t *testing.T) {
	head := scored(1, 1, "HDFC", 90)
	ranked := []*ScoredChannel{
		head,
		scored(2, 1, "HDFC", 85), // same custodian and bank as head
		scored(3, 2, "HDFC", 80), // new custodian, same bank
		scored(4, 3, "ICICI", 70),
	}

	chain := BuildChain(head, ranked, 3)
	require.Len(t, chain, 3)
	assert.Equal(t, uint(1), chain[0].Channel.ID)
	// The fully diverse pick wins over the higher-scored partial overlap.
	assert.Equal(t, uint(4), chain[1].Channel.ID)
	assert.Equal(t, uint(3), chain[2].Channel.ID)
}

func TestBuildChain_FallsBackToBestRemainingScore(t *testing.T) {
	head := scored(1, 1, "HDFC", 90)
	ranked := []*ScoredChannel{
		head,
		scored(2, 1, "HDFC", 85),
		scored(3, 1, "HDFC", 60),
	}

	chain := BuildChain(head, ranked, 3)
	require.Len(t, chain, 3)
	assert.Equal(t, uint(2), chain[1].Channel.ID)
	assert.Equal(t, uint(3), chain[2].Channel.ID)
}

func TestBuildChain_ShorterPoolYieldsShorterChain(t *testing.T) {
	head := scored(1, 1, "HDFC", 90)

	chain := BuildChain(head, []*ScoredChannel{head}, 3)
	require.Len(t, chain, 1)
	assert.Equal(t, head, chain[0])
}

func TestBuildChain_NilHead(t *testing.T) {
	assert.Nil(t, BuildChain(nil, nil, 3))
}
