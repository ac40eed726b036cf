package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ghalamif/commsentinel/internal/domain"
)

// LoadAlarmFile reads an RTCADS alarm-limit file. Each non-comment line is
//
//	name<TAB>status<TAB>red_low<TAB>yellow_low<TAB>yellow_high<TAB>red_high
//
// and every enabled entry yields a warning rule on the yellow limits and a
// critical rule on the red limits.
func LoadAlarmFile(path string) ([]domain.ViolationRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	defer f.Close()

	var rules []domain.ViolationRule
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
			continue
		}

		pcs := strings.Split(text, "\t")
		if len(pcs) != 6 {
			return nil, fmt.Errorf("%w: %s:%d: expected 6 tab-separated fields, got %d",
				domain.ErrConfiguration, path, line, len(pcs))
		}
		status, err := strconv.Atoi(strings.TrimSpace(pcs[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: status: %v", domain.ErrConfiguration, path, line, err)
		}
		var lim [4]float64
		for i := range lim {
			lim[i], err = strconv.ParseFloat(strings.TrimSpace(pcs[i+2]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d: limit %d: %v", domain.ErrConfiguration, path, line, i+1, err)
			}
		}
		if status == 0 {
			continue
		}

		name := strings.TrimSpace(pcs[0])
		rll, yll, yul, rul := lim[0], lim[1], lim[2], lim[3]
		rules = append(rules,
			domain.ViolationRule{
				Name: name + "/warning", Channel: name,
				Lower: &yll, Upper: &yul,
				RequiredConsecutiveHits: 1, Severity: domain.SeverityWarning,
			},
			domain.ViolationRule{
				Name: name + "/critical", Channel: name,
				Lower: &rll, Upper: &rul,
				RequiredConsecutiveHits: 1, Severity: domain.SeverityCritical,
			},
		)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfiguration, path, err)
	}
	return rules, nil
}
