package admin

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/ppiankov/kafkadmin/internal/retry"
)

var configsStrategy = retry.Strategy{
	Retriable: []*kerr.Error{kerr.NotController},
}

// DescribeConfigs returns the configuration of the given resources,
// queried through the controller.
func (a *Admin) DescribeConfigs(ctx context.Context, resources []ConfigResource, includeSynonyms bool) ([]DescribedConfigResource, error) {
	if err := validateConfigResources(resources); err != nil {
		return nil, err
	}

	return retry.Do(ctx, "describe configs", a.policy, configsStrategy,
		func(ctx context.Context, _ retry.Attempt) ([]DescribedConfigResource, error) {
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return nil, err
			}
			controller, err := a.cluster.Controller()
			if err != nil {
				return nil, err
			}

			req := kmsg.NewPtrDescribeConfigsRequest()
			req.IncludeSynonyms = includeSynonyms
			for _, r := range resources {
				rr := kmsg.NewDescribeConfigsRequestResource()
				rr.ResourceType = r.Type
				rr.ResourceName = r.Name
				rr.ConfigNames = r.ConfigNames
				req.Resources = append(req.Resources, rr)
			}

			resp, err := controller.Request(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("describe configs: %w", err)
			}
			dresp := resp.(*kmsg.DescribeConfigsResponse)

			out := make([]DescribedConfigResource, 0, len(dresp.Resources))
			for _, r := range dresp.Resources {
				if err := kerr.ErrorForCode(r.ErrorCode); err != nil {
					return nil, fmt.Errorf("describe configs for %q: %w", r.ResourceName, err)
				}
				described := DescribedConfigResource{
					Type: r.ResourceType,
					Name: r.ResourceName,
				}
				for _, c := range r.Configs {
					described.Configs = append(described.Configs, DescribedConfigEntry{
						Name:      c.Name,
						Value:     c.Value,
						ReadOnly:  c.ReadOnly,
						IsDefault: c.IsDefault,
						Sensitive: c.IsSensitive,
					})
				}
				out = append(out, described)
			}
			return out, nil
		})
}

// AlterConfigs applies the given configuration to each resource through
// the controller.
func (a *Admin) AlterConfigs(ctx context.Context, resources []AlterConfigResource, validateOnly bool) ([]AlteredConfigResource, error) {
	if err := validateAlterConfigResources(resources); err != nil {
		return nil, err
	}

	return retry.Do(ctx, "alter configs", a.policy, configsStrategy,
		func(ctx context.Context, _ retry.Attempt) ([]AlteredConfigResource, error) {
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return nil, err
			}
			controller, err := a.cluster.Controller()
			if err != nil {
				return nil, err
			}

			req := kmsg.NewPtrAlterConfigsRequest()
			req.ValidateOnly = validateOnly
			for _, r := range resources {
				rr := kmsg.NewAlterConfigsRequestResource()
				rr.ResourceType = r.Type
				rr.ResourceName = r.Name
				for _, e := range r.Entries {
					rc := kmsg.NewAlterConfigsRequestResourceConfig()
					rc.Name = e.Name
					rc.Value = kmsg.StringPtr(e.Value)
					rr.Configs = append(rr.Configs, rc)
				}
				req.Resources = append(req.Resources, rr)
			}

			resp, err := controller.Request(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("alter configs: %w", err)
			}
			aresp := resp.(*kmsg.AlterConfigsResponse)

			out := make([]AlteredConfigResource, 0, len(aresp.Resources))
			for _, r := range aresp.Resources {
				if err := kerr.ErrorForCode(r.ErrorCode); err != nil {
					return nil, fmt.Errorf("alter configs for %q: %w", r.ResourceName, err)
				}
				out = append(out, AlteredConfigResource{Type: r.ResourceType, Name: r.ResourceName})
			}
			return out, nil
		})
}
