package routing

// BuildChain assembles the ordered fallback chain. The head (the live
// selection) always comes first; standbys are picked greedily from the
// score-ranked remainder, preferring an unused custodian and an unused bank,
// then an unused custodian alone, then plain best-remaining-score once
// diversity is exhausted.
func BuildChain(head *ScoredChannel, ranked []*ScoredChannel, n int) []*ScoredChannel {
	if head == nil || n < 1 {
		return nil
	}

	chain := []*ScoredChannel{head}
	usedCustodians := map[uint]bool{head.Channel.CustodianID: true}
	usedBanks := map[string]bool{head.Channel.BankName: true}
	inChain := map[uint]bool{head.Channel.ID: true}

	pick := func(ok func(*ScoredChannel) bool) *ScoredChannel {
		for _, c := range ranked {
			if inChain[c.Channel.ID] {
				continue
			}
			if ok(c) {
				return c
			}
		}
		return nil
	}

	for len(chain) < n {
		next := pick(func(c *ScoredChannel) bool {
			return !usedCustodians[c.Channel.CustodianID] && !usedBanks[c.Channel.BankName]
		})
		if next == nil {
			next = pick(func(c *ScoredChannel) bool {
				return !usedCustodians[c.Channel.CustodianID]
			})
		}
		if next == nil {
			next = pick(func(c *ScoredChannel) bool { return true })
		}
		if next == nil {
			break
		}
		chain = append(chain, next)
		inChain[next.Channel.ID] = true
		usedCustodians[next.Channel.CustodianID] = true
		usedBanks[next.Channel.BankName] = true
	}

	return chain
}
