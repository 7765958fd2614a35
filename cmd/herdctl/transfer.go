package main

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-herd-keeper/models"
)

func newTransferCmd(api func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Inspect and drive ownership transfers",
	}

	cmd.AddCommand(
		newTransferGetCmd(api),
		newTransferInitiateCmd(api),
		newTransferVerifyCmd(api),
		newTransferRejectCmd(api),
	)
	return cmd
}

func transferPath(id string, action ...string) string {
	p := "/api/transfers/" + url.PathEscape(id)
	for _, a := range action {
		p += "/" + a
	}
	return p
}

func newTransferGetCmd(api func() *apiClient) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <transfer-id>",
		Short: "Show a transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tr models.Transfer
			if err := api().get(cmd.Context(), transferPath(args[0]), &tr); err != nil {
				return err
			}
			return showTransfer(cmd, tr, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}

func newTransferInitiateCmd(api func() *apiClient) *cobra.Command {
	var (
		toOwner string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "initiate <asset-id>",
		Short: "Start a transfer of an asset to another owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.InitiateTransferRequest{AssetID: args[0], ToOwnerID: toOwner}

			var tr models.Transfer
			if err := api().post(cmd.Context(), "/api/transfers", req, &tr); err != nil {
				return err
			}
			return showTransfer(cmd, tr, asJSON)
		},
	}

	cmd.Flags().StringVar(&toOwner, "to", "", "id of the new owner")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newTransferVerifyCmd(api func() *apiClient) *cobra.Command {
	var (
		details models.VerificationDetails
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "verify <transfer-id>",
		Short: "Confirm a transfer with the observed attributes of the asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tr models.Transfer
			if err := api().post(cmd.Context(), transferPath(args[0], "verify"), details, &tr); err != nil {
				return err
			}
			return showTransfer(cmd, tr, asJSON)
		},
	}

	f := cmd.Flags()
	f.StringVar(&details.VerifiedBy, "by", "", "id of the verifying owner")
	f.StringVar(&details.Comment, "comment", "", "free-form comment")
	f.StringVar(&details.Observed.Color, "color", "", "observed color")
	f.Float64Var(&details.Observed.WeightKg, "weight", 0, "observed weight in kg")
	f.IntVar(&details.Observed.AgeMonths, "age", 0, "observed age in months")
	f.StringVar(&details.Observed.PhotoRef, "photo", "", "reference of the photo taken")
	f.StringVar(&details.Observed.Location, "location", "", "observed location")
	f.Int64Var(&details.Observed.PriceCents, "price", 0, "agreed price in cents")
	f.BoolVar(&asJSON, "json", false, "output in JSON format")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func newTransferRejectCmd(api func() *apiClient) *cobra.Command {
	var (
		reason string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "reject <transfer-id>",
		Short: "Cancel a pending transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tr models.Transfer
			req := models.RejectTransferRequest{Reason: reason}
			if err := api().post(cmd.Context(), transferPath(args[0], "reject"), req, &tr); err != nil {
				return err
			}
			return showTransfer(cmd, tr, asJSON)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the transfer is rejected")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func showTransfer(cmd *cobra.Command, tr models.Transfer, asJSON bool) error {
	if asJSON {
		return printJSON(cmd.OutOrStdout(), tr)
	}
	printTransfer(cmd.OutOrStdout(), tr)
	return nil
}
