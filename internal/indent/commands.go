package indent

import (
	"context"
	"fmt"
	"sort"
)

// CmdPing fetches the dropdown document once and reports what came back.
func (c *Client) CmdPing(ctx context.Context) error {
	fmt.Printf("%sTesting connection to %s...%s\n", Blue, c.Config.APIURL, Reset)

	data, err := c.FetchMasters(ctx)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	fmt.Printf("%s✓ Connection successful%s\n", Green, Reset)
	for _, name := range SetNames {
		fmt.Printf("  %-16s %d\n", name+":", len(data.Set(name)))
	}
	return nil
}

// CmdConfig shows current configuration
func (c *Client) CmdConfig() error {
	fmt.Printf("%sCurrent configuration:%s\n", Blue, Reset)
	if c.Config.Path != "" {
		fmt.Printf("  Config file: %s\n", c.Config.Path)
	} else {
		fmt.Printf("  Config file: %snone found%s (defaults and environment)\n", Yellow, Reset)
	}
	fmt.Printf("  API URL: %s\n", c.Config.APIURL)
	fmt.Printf("  Brand: %s\n", c.Config.Brand)
	if c.Config.HTTPTimeout > 0 {
		fmt.Printf("  HTTP timeout: %s\n", c.Config.HTTPTimeout)
	} else {
		fmt.Printf("  HTTP timeout: %stransport default%s\n", Yellow, Reset)
	}
	fmt.Printf("  Shared master cache: %t\n", c.Config.ShareMasters)
	fmt.Printf("  Coerce all digits: %t\n", c.Config.CoerceAllDigits)
	fmt.Printf("  PO placeholder: %s\n", c.Config.POPlaceholder)
	fmt.Printf("  Log file: %s\n", c.Config.LogFile)
	return nil
}

// CmdMasters prints one master set, or the size of every set.
func (c *Client) CmdMasters(ctx context.Context, args []string) error {
	data, err := c.FetchMasters(ctx)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Printf("\n%sMaster dropdowns:%s\n", Cyan, Reset)
		for _, name := range SetNames {
			fmt.Printf("  %-16s %d\n", name+":", len(data.Set(name)))
		}
		return nil
	}

	name := args[0]
	known := false
	for _, n := range SetNames {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown master set: %s (one of %v)", name, SetNames)
	}

	opts := data.Set(name)
	if len(opts) == 0 {
		fmt.Printf("%sNo %s found%s\n", Yellow, name, Reset)
		return nil
	}

	sorted := make([]Option, len(opts))
	copy(sorted, opts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	fmt.Printf("\n%s%s (%d):%s\n", Cyan, name, len(sorted), Reset)
	for _, o := range sorted {
		fmt.Printf("  %s%s%s - %s\n", Green, o.ID, Reset, o.Name)
	}
	return nil
}
