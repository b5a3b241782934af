// Command client is a terminal front end for the ticketing API. It keeps a
// session across runs through the credential file, so a second invocation
// does not prompt for a password while the session is still renewable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rifle-app/rifle/internal/client"
)

func main() {
	baseURL := flag.String("api", "http://localhost:3000", "API base URL")
	email := flag.String("email", "", "email for login")
	password := flag.String("password", "", "password for login")
	name := flag.String("name", "", "register a new account with this display name")
	flag.Parse()

	storage, err := client.NewFileStorage()
	if err != nil {
		log.Fatalf("credential storage: %v", err)
	}
	c := client.New(*baseURL, storage)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Startup mirrors an app launch: restore first, log in only if needed.
	if c.Restore(ctx) != client.StateAuthenticated {
		switch {
		case *name != "" && *email != "" && *password != "":
			if _, err := c.Register(ctx, *name, *email, *password); err != nil {
				fail("register", err)
			}
		case *email != "" && *password != "":
			if _, err := c.Login(ctx, *email, *password); err != nil {
				fail("login", err)
			}
		default:
			fmt.Println("no stored session; pass -email and -password (and -name to register)")
			os.Exit(1)
		}
	}

	profile, _ := c.Session().Profile()
	fmt.Printf("signed in as %s <%s> (%s)\n", profile.Name, profile.Email, profile.Role)

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "events"
	}

	routes := map[string]client.Route{
		"events":    {Protected: false},
		"tickets":   {Protected: true},
		"dashboard": {Protected: true, RequiredRole: "organizer"},
	}
	decision := client.Gate(c.Session().State(), profile, routes[cmd])
	if decision.Redirect != "" {
		fmt.Printf("not allowed here; would navigate to %s\n", decision.Redirect)
		os.Exit(1)
	}

	switch cmd {
	case "events":
		page, err := c.ListEvents(ctx, 1)
		if err != nil {
			fail("list events", err)
		}
		for _, ev := range page.Events {
			fmt.Printf("#%d  %s  %s  %s  %d/%d left\n",
				ev.ID, ev.Date.Format("2006-01-02"), ev.Title, ev.Location, ev.Remaining, ev.Capacity)
		}
	case "tickets":
		tickets, err := c.MyTickets(ctx)
		if err != nil {
			fail("list tickets", err)
		}
		for _, t := range tickets {
			fmt.Printf("ticket #%d  event #%d  %s\n", t.ID, t.EventID, t.Status)
		}
	case "dashboard":
		dash, err := c.GetOrganizerDashboard(ctx)
		if err != nil {
			fail("dashboard", err)
		}
		fmt.Printf("%d events, %d tickets sold, %d cents revenue\n",
			dash.EventsCount, dash.TicketsSold, dash.RevenueCents)
	default:
		fmt.Printf("unknown command %q (try events, tickets, dashboard)\n", cmd)
		os.Exit(1)
	}
}

// fail prints a message appropriate to the error class. A terminal
// authentication error means the session was force-cleared; the top-level
// controller, not the client library, decides to send the user to login.
func fail(op string, err error) {
	var authErr *client.AuthenticationError
	if errors.As(err, &authErr) {
		fmt.Printf("%s: session expired, please sign in again\n", op)
		os.Exit(1)
	}
	var netErr *client.NetworkError
	if errors.As(err, &netErr) {
		fmt.Printf("%s: network trouble, try again (%v)\n", op, netErr.Err)
		os.Exit(1)
	}
	fmt.Printf("%s: %v\n", op, err)
	os.Exit(1)
}
