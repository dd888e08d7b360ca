package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"techlam/internal/admin"
	"techlam/internal/client"
	"techlam/internal/content"
	"techlam/internal/model"
)

func newSignUpCmd(open opener) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "signup <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			pending, err := s.auth.SignUp(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			if pending {
				fmt.Fprintln(s.out, "Check your email to verify your account, then sign in.")
				return nil
			}
			fmt.Fprintf(s.out, "Signed in as %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (default $TECHLAM_PASSWORD or prompt)")
	return cmd
}

func newSignInCmd(open opener) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "signin <email>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.auth.SignIn(cmd.Context(), args[0], pw); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Signed in as %s (%s)\n", args[0], admin.ViewOf(s.auth.State()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (default $TECHLAM_PASSWORD or prompt)")
	return cmd
}

func newSignOutCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "End the session and forget the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			err = s.auth.SignOut(cmd.Context())
			fmt.Fprintln(s.out, "Signed out")
			return err
		},
	}
}

func newWhoAmICmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and their access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			st := s.auth.State()
			if !st.SignedIn() {
				fmt.Fprintln(s.out, "Not signed in")
				return nil
			}
			fmt.Fprintf(s.out, "%s\nrole: %s\naccess: %s\n", st.User.Email, st.Role, admin.ViewOf(st))
			return nil
		},
	}
}

// projectFlags binds every editable project field to a flag.
type projectFlags struct {
	title, description, category, location, capacity, imageURL string
	featured                                                   bool
	order                                                      int
}

func (f *projectFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "project title (required)")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.location, "location", "", "location")
	cmd.Flags().StringVar(&f.capacity, "capacity", "", "capacity, e.g. 15 kWp")
	cmd.Flags().StringVar(&f.imageURL, "image-url", "", "image URL")
	cmd.Flags().BoolVar(&f.featured, "featured", false, "show on the home page")
	cmd.Flags().IntVar(&f.order, "order", 0, "display order, lowest first")
}

func (f *projectFlags) fields() content.ProjectFields {
	featured, order := f.featured, f.order
	return content.ProjectFields{
		Title:        f.title,
		Description:  content.String(f.description),
		Category:     content.String(f.category),
		Location:     content.String(f.location),
		Capacity:     content.String(f.capacity),
		ImageURL:     content.String(f.imageURL),
		IsFeatured:   &featured,
		DisplayOrder: &order,
	}
}

func newProjectsCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List and edit portfolio projects",
	}

	var query client.ProjectQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			projects, err := s.anon.ListProjects(cmd.Context(), query)
			if err != nil {
				return err
			}
			printProjects(s.out, projects)
			return nil
		},
	}
	list.Flags().StringVar(&query.Category, "category", "", "only this category")
	list.Flags().BoolVar(&query.FeaturedOnly, "featured", false, "only featured projects")

	var create projectFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.mount(cmd.Context()); err != nil {
				return err
			}
			s.surface.NewProject()
			s.surface.SetProjectFields(create.fields())
			return s.report(s.surface.SaveProject(cmd.Context()))
		},
	}
	create.bind(createCmd)

	var update projectFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace every field of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.mount(cmd.Context()); err != nil {
				return err
			}
			s.surface.EditProject(model.Project{ID: id})
			s.surface.SetProjectFields(update.fields())
			return s.report(s.surface.SaveProject(cmd.Context()))
		},
	}
	update.bind(updateCmd)

	var confirmed bool
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			if !confirmed {
				return errors.New("deleting cannot be undone, pass --yes to confirm")
			}
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.mount(cmd.Context()); err != nil {
				return err
			}
			return s.report(s.surface.DeleteProject(cmd.Context(), id))
		},
	}
	deleteCmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm the deletion")

	categories := &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			names, err := s.anon.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(s.out, name)
			}
			return nil
		},
	}

	cmd.AddCommand(list, createCmd, updateCmd, deleteCmd, categories)
	return cmd
}

func newContactCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Show or change the site contact info",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the contact info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			info, err := s.anon.GetContactInfo(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "phone\t%s\n", deref(info.Phone))
			fmt.Fprintf(w, "email\t%s\n", deref(info.Email))
			fmt.Fprintf(w, "address\t%s\n", deref(info.Address))
			fmt.Fprintf(w, "whatsapp\t%s\n", deref(info.WhatsApp))
			fmt.Fprintf(w, "maps embed\t%s\n", deref(info.GoogleMapsEmbed))
			fmt.Fprintf(w, "updated\t%s\n", humanize.Time(info.UpdatedAt))
			return w.Flush()
		},
	}

	var phone, email, address, whatsapp, maps string
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the contact info; omitted fields are cleared",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.mount(cmd.Context()); err != nil {
				return err
			}
			s.surface.SetContactFields(content.ContactFields{
				Phone:           content.String(phone),
				Email:           content.String(email),
				Address:         content.String(address),
				WhatsApp:        content.String(whatsapp),
				GoogleMapsEmbed: content.String(maps),
			})
			return s.report(s.surface.SaveContact(cmd.Context()))
		},
	}
	set.Flags().StringVar(&phone, "phone", "", "phone number")
	set.Flags().StringVar(&email, "email", "", "email address")
	set.Flags().StringVar(&address, "address", "", "postal address")
	set.Flags().StringVar(&whatsapp, "whatsapp", "", "WhatsApp number")
	set.Flags().StringVar(&maps, "maps-embed", "", "Google Maps embed iframe or URL")

	cmd.AddCommand(show, set)
	return cmd
}

func newImageCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage project images",
	}
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its public URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.mount(cmd.Context()); err != nil {
				return err
			}
			if err := s.report(s.surface.UploadImage(cmd.Context(), filepath.Base(args[0]), f)); err != nil {
				return err
			}
			fmt.Fprintln(s.out, deref(s.surface.Snapshot().ProjectForm.Fields.ImageURL))
			return nil
		},
	}
	cmd.AddCommand(upload)
	return cmd
}

func newEnquiriesCmd(open opener) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "enquiries",
		Short: "List the newest contact-form messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.mount(cmd.Context()); err != nil {
				return err
			}
			if err := s.report(s.surface.LoadEnquiries(cmd.Context(), limit)); err != nil {
				return err
			}
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RECEIVED\tNAME\tEMAIL\tPHONE\tMESSAGE")
			for _, e := range s.surface.Snapshot().Enquiries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", humanize.Time(e.CreatedAt), e.Name, e.Email, deref(e.Phone), e.Message)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "how many to show")
	return cmd
}

func newUsersCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "Manage users (admins only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.mount(cmd.Context()); err != nil {
				return err
			}
			users, err := s.surface.LoadUsers(cmd.Context())
			if err := s.report(err); err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintln(s.out, u.Email)
			}
			return nil
		},
	}
}

func printProjects(out io.Writer, projects []model.Project) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tID\tTITLE\tCATEGORY\tLOCATION\tCAPACITY\tFEATURED")
	for _, p := range projects {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
			p.DisplayOrder, p.ID, p.Title, deref(p.Category), deref(p.Location), deref(p.Capacity), p.IsFeatured)
	}
	_ = w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
