package checker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/tahnok/unbound-ddns/client"
	"github.com/tahnok/unbound-ddns/updater"
)

// Check is one update-then-resolve scenario: push a record through the API,
// then expect the resolver to answer with ExpectedIP.
type Check struct {
	Name       string
	Domain     string
	Key        string
	IP         string // empty lets the server auto-detect
	ExpectedIP string
}

// LoadChecks reads a JSON array of checks. Each element carries "name",
// "domain", "key", "ip" and "expected_ip"; domain and expected_ip are
// required, the name defaults to the domain.
func LoadChecks(path string) ([]Check, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checks file: %w", err)
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("checks file %s: expected a JSON array", path)
	}

	var checks []Check
	var parseErr error
	parsed.ForEach(func(_, value gjson.Result) bool {
		check := Check{
			Name:       value.Get("name").String(),
			Domain:     value.Get("domain").String(),
			Key:        value.Get("key").String(),
			IP:         value.Get("ip").String(),
			ExpectedIP: value.Get("expected_ip").String(),
		}
		if check.Domain == "" || check.ExpectedIP == "" {
			parseErr = fmt.Errorf("checks file %s: every check needs domain and expected_ip", path)
			return false
		}
		if check.Name == "" {
			check.Name = check.Domain
		}
		checks = append(checks, check)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("checks file %s: no checks defined", path)
	}

	return checks, nil
}

// Summary counts check outcomes.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

func (s Summary) Ok() bool {
	return s.Failed == 0
}

// Runner drives a check suite against one deployment.
type Runner struct {
	API    *updater.UpdateClient
	DNS    *client.DNSClient
	Settle time.Duration // grace period for the resolver to pick up the update
	Report *Reporter
}

// Run executes every check in order and reports the summary. DNS failures
// are ordinary negative outcomes, never aborts.
func (r *Runner) Run(ctx context.Context, checks []Check) Summary {
	summary := Summary{Total: len(checks)}
	for _, check := range checks {
		if r.runOne(ctx, check) {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	r.Report.Header("Check Summary")
	r.Report.Plain(fmt.Sprintf("Total checks: %d", summary.Total))
	r.Report.Success(fmt.Sprintf("Passed: %d", summary.Passed))
	if summary.Failed > 0 {
		r.Report.Error(fmt.Sprintf("Failed: %d", summary.Failed))
	} else {
		r.Report.Info(fmt.Sprintf("Failed: %d", summary.Failed))
	}

	return summary
}

func (r *Runner) runOne(ctx context.Context, check Check) bool {
	requestID := uuid.New().String()
	start := time.Now()
	logger := log.WithFields(log.Fields{
		"requestId": requestID,
		"check":     check.Name,
		"domain":    check.Domain,
	})
	defer func() {
		logger.WithField("elapsed", time.Since(start).String()).Debug("check finished")
	}()

	r.Report.Header("Check: " + check.Name)

	r.Report.Info(fmt.Sprintf("Updating %s via API...", check.Domain))
	if check.IP != "" {
		r.Report.Info("  Setting IP to: " + check.IP)
	} else {
		r.Report.Info("  Using auto-detected IP")
	}

	message, err := r.API.Update(ctx, check.Key, check.Domain, check.IP)
	if err != nil {
		logger.WithError(err).Error("update failed")
		r.Report.Error("Failed to update DNS record: " + err.Error())
		return false
	}
	r.Report.Success("API returned: " + message)

	if r.Settle > 0 {
		r.Report.Info("Waiting for the resolver to reload...")
		time.Sleep(r.Settle)
	}

	r.Report.Info(fmt.Sprintf("Querying DNS for %s...", check.Domain))
	resolved := r.DNS.ResolveA(check.Domain)
	if resolved == "" {
		logger.Error("DNS query returned no result")
		r.Report.Error("DNS query returned no result")
		return false
	}
	r.Report.Info("  Resolved to: " + resolved)

	if resolved != check.ExpectedIP {
		logger.WithFields(log.Fields{
			"resolved": resolved,
			"expected": check.ExpectedIP,
		}).Error("resolved address does not match")
		r.Report.Error(fmt.Sprintf("Check failed! Expected %s, got %s", check.ExpectedIP, resolved))
		return false
	}

	r.Report.Success("Check passed! IP matches expected value: " + check.ExpectedIP)
	return true
}
