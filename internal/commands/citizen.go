package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/panvault-dev/panvault/internal/exchange"
	"github.com/panvault-dev/panvault/internal/model"
	"github.com/panvault-dev/panvault/internal/store"
)

func newCitizenCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "citizen",
		Short: "Manage citizen records",
	}
	cmd.AddCommand(newCitizenAddCommand(dir))
	cmd.AddCommand(newCitizenUpdateCommand(dir))
	cmd.AddCommand(newCitizenDeleteCommand(dir))
	cmd.AddCommand(newCitizenShowCommand(dir))
	cmd.AddCommand(newCitizenSearchCommand(dir))
	return cmd
}

type addressFlags struct {
	street, city, state, postalCode, country string
}

func (f *addressFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.street, "street", "", "street address")
	cmd.Flags().StringVar(&f.city, "city", "", "city")
	cmd.Flags().StringVar(&f.state, "state", "", "state")
	cmd.Flags().StringVar(&f.postalCode, "postal-code", "", "postal code")
	cmd.Flags().StringVar(&f.country, "country", "India", "country")
}

func (f *addressFlags) address() model.Address {
	return model.Address{
		Street:     f.street,
		City:       f.city,
		State:      f.state,
		PostalCode: f.postalCode,
		Country:    f.country,
	}
}

func newCitizenAddCommand(dir *string) *cobra.Command {
	var name, dob, phone string
	var addr addressFlags

	cmd := &cobra.Command{
		Use:   "add PAN",
		Short: "Create a citizen record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}

			parsedDOB, err := time.Parse(exchange.DateFormat, dob)
			if err != nil {
				return &model.Fault{
					Op: "cli.citizen_add", Kind: model.KindInvalidFormat, Field: "dob",
					Err: fmt.Errorf("date of birth must be YYYY-MM-DD, got %q", dob),
				}
			}

			c, err := p.store.CreateCitizen(store.CitizenParams{
				PAN:     args[0],
				Name:    name,
				DOB:     parsedDOB,
				Phone:   phone,
				Address: addr.address(),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created citizen %s (%s)\n", c.PAN, c.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&dob, "dob", "", "date of birth, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("dob")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	addr.register(cmd)

	return cmd
}

func newCitizenUpdateCommand(dir *string) *cobra.Command {
	var name, phone string
	var addr addressFlags

	cmd := &cobra.Command{
		Use:   "update PAN",
		Short: "Update a citizen's name, phone, or address (the PAN itself never changes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}

			var upd store.CitizenUpdate
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}
			if cmd.Flags().Changed("phone") {
				upd.Phone = &phone
			}
			if cmd.Flags().Changed("street") || cmd.Flags().Changed("city") ||
				cmd.Flags().Changed("state") || cmd.Flags().Changed("postal-code") ||
				cmd.Flags().Changed("country") {
				a := addr.address()
				upd.Address = &a
			}

			c, err := p.store.UpdateCitizen(args[0], upd)
			if err != nil {
				return err
			}
			fmt.Printf("Updated citizen %s (version %d)\n", c.PAN, c.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	addr.register(cmd)

	return cmd
}

func newCitizenDeleteCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete PAN",
		Short: "Delete a citizen owning no accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}
			if err := p.store.DeleteCitizen(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted citizen %s\n", args[0])
			return nil
		},
	}
	return cmd
}

func newCitizenShowCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show PAN",
		Short: "Show a citizen and its accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}

			c, err := p.store.GetCitizen(args[0])
			if err != nil {
				return err
			}
			printCitizen(c)

			accounts, err := p.store.ListAccountsFor(c.PAN)
			if err != nil {
				return err
			}
			for _, a := range accounts {
				printAccount(a)
			}
			return nil
		},
	}
	return cmd
}

func newCitizenSearchCommand(dir *string) *cobra.Command {
	var prefix, accountNo string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search citizens by PAN prefix or by account number",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}

			switch {
			case accountNo != "":
				c, err := p.store.CitizenByAccount(accountNo)
				if err != nil {
					return err
				}
				printCitizen(c)
			case prefix != "":
				hits := p.store.SearchPANPrefix(prefix)
				for _, c := range hits {
					printCitizen(c)
				}
				fmt.Printf("%d match(es)\n", len(hits))
			default:
				return fmt.Errorf("one of --pan-prefix or --account is required")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "pan-prefix", "", "PAN prefix to match")
	cmd.Flags().StringVar(&accountNo, "account", "", "account number to resolve")

	return cmd
}

func printCitizen(c model.Citizen) {
	fmt.Printf("[%s] %s (%s) v%d\n", c.PAN, c.Name, c.DOB.Format(exchange.DateFormat), c.Version)
	if c.Phone != "" {
		fmt.Printf("  phone: %s\n", c.Phone)
	}
	a := c.Address
	fmt.Printf("  %s, %s, %s %s, %s\n", a.Street, a.City, a.State, a.PostalCode, a.Country)
}

func printAccount(a model.Account) {
	fmt.Printf("  %s %-13s %10s  %s (%s) v%d\n",
		a.Number, a.Type, a.Balance.StringFixed(2), a.Branch, a.Status, a.Version)
}
