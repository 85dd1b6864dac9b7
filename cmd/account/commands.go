package account

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/kvmarket/cmd/output"
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	registerCmd = &cobra.Command{
		Use:   "register [email] [username]",
		Short: "Creates an account and logs it in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword()
			if err != nil {
				return err
			}
			a, err := mkt.Register(args[0], password, args[1])
			if err != nil {
				return err
			}
			output.Success("welcome %s, you are logged in", a.Username)
			return nil
		},
	}
	loginCmd = &cobra.Command{
		Use:   "login [email]",
		Short: "Logs in to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword()
			if err != nil {
				return err
			}
			a, err := mkt.Login(args[0], password)
			if err != nil {
				return err
			}
			output.Success("logged in as %s", a.Username)
			return nil
		},
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Ends the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := mkt.Logout(); err != nil {
				return err
			}
			output.Success("logged out")
			return nil
		},
	}
	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Shows the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ok, err := mkt.CurrentAccount()
			if err != nil {
				return err
			}
			if !ok {
				output.Info("not logged in")
				return nil
			}
			printAccount(a)
			return nil
		},
	}
	profileCmd = &cobra.Command{
		Use:   "profile",
		Short: "Updates the profile of the logged in account (only the given flags are changed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.ProfilePatch
			set := func(flag string, field **string) {
				if cmd.Flags().Changed(flag) {
					v, _ := cmd.Flags().GetString(flag)
					*field = &v
				}
			}
			set("username", &patch.Username)
			set("first-name", &patch.FirstName)
			set("last-name", &patch.LastName)
			set("phone", &patch.Phone)
			set("address", &patch.Address)

			a, err := mkt.UpdateProfile(patch)
			if err != nil {
				return err
			}
			output.Success("profile updated")
			printAccount(a)
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all registered accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := mkt.Sessions.Accounts()
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				output.Info("no accounts yet")
				return nil
			}
			for _, a := range accounts {
				output.Field(a.Username, a.Email)
			}
			output.Muted("%s accounts", strconv.Itoa(len(accounts)))
			return nil
		},
	}
)

// readPassword returns the --password flag or the KVMARKET_PASSWORD environment variable
func readPassword() (string, error) {
	password := viper.GetString("password")
	if password == "" {
		return "", fmt.Errorf("no password given (use --password or KVMARKET_PASSWORD)")
	}
	return password, nil
}

func printAccount(a model.Account) {
	output.Section(a.Username)
	output.Field("Email", a.Email)
	if name := a.FullName(); name != "" {
		output.Field("Name", name)
	}
	if a.Phone != "" {
		output.Field("Phone", a.Phone)
	}
	if a.Address != "" {
		output.Field("Address", a.Address)
	}
	output.Field("Member since", a.JoinedDate.Local().Format("2006-01-02"))
	output.Field("ID", a.ID)
}
