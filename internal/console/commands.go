package console

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/and161185/library-keeper/internal/service"
)

func (c *Console) register() {
	c.commands = map[string]command{}
	login, staff := RequireLogin(), RequireStaff()
	add := func(name, usage, help string, h Handler, gate ...Middleware) {
		mw := append([]Middleware{Recover(c.log), Logging(c.log)}, gate...)
		c.commands[name] = command{usage: usage, help: help, run: Chain(h, mw...)}
		c.order = append(c.order, name)
	}

	add("help", "help", "list commands", c.cmdHelp)
	add("register", "register", "create a member or staff account", c.cmdRegister)
	add("login", "login [email]", "start a session", c.cmdLogin)
	add("logout", "logout", "end the session", c.cmdLogout, login)
	add("whoami", "whoami", "show the logged-in account", c.cmdWhoami, login)

	add("items", "items", "list the catalog grouped by kind", c.cmdItems)
	add("search", "search <text>", "find items whose title contains text", c.cmdSearch)
	add("add-item", "add-item", "add an item or merge its stock", c.cmdAddItem, staff)
	add("remove-item", "remove-item <item-id>", "delete an item from the catalog", c.cmdRemoveItem, staff)
	add("adjust-stock", "adjust-stock <item-id> <delta>", "add or remove copies", c.cmdAdjustStock, staff)

	add("persons", "persons", "list registered persons", c.cmdPersons, staff)
	add("remove-person", "remove-person <id|email>", "deregister a person", c.cmdRemovePerson, staff)
	add("renew", "renew <id|email>", "renew a member's subscription", c.cmdRenew, staff)
	add("extend-subscription", "extend-subscription <id|email> <days>", "extend a member's subscription", c.cmdExtendSubscription, staff)

	add("borrow", "borrow [-for id|email] [-days N] <item-id>[:qty]...", "create a loan", c.cmdBorrow, login)
	add("loans", "loans [id|email]", "list loans, oldest first", c.cmdLoans, login)
	add("return", "return <loan-id>", "return a loan and restock its items", c.cmdReturn, login)
	add("extend-loan", "extend-loan <loan-id> <days>", "push a loan's due date", c.cmdExtendLoan, staff)
	add("overdue", "overdue", "list open loans past their due date", c.cmdOverdue, staff)
	add("stats", "stats", "show operation counters", c.cmdStats, staff)
}

func (c *Console) cmdHelp(context.Context, Request) error {
	c.printf("%-52s %s\n", "Command", "Description")
	c.printf("%s\n", strings.Repeat("-", 100))
	for _, name := range c.order {
		cmd := c.commands[name]
		c.printf("%-52s %s\n", cmd.usage, cmd.help)
	}
	c.printf("%-52s %s\n", "exit", "leave the console")
	return nil
}

// ---- accounts ----

func (c *Console) cmdRegister(ctx context.Context, _ Request) error {
	roleText, err := c.ask("Role (member/staff)")
	if err != nil {
		return err
	}
	role, ok := model.ParseRole(roleText)
	if !ok {
		return fmt.Errorf("%w: unknown role %q", errs.ErrValidation, roleText)
	}

	in := service.NewPerson{Role: role}
	if in.Name, err = c.ask("Name"); err != nil {
		return err
	}
	if in.Email, err = c.ask("Email"); err != nil {
		return err
	}
	if in.Age, err = c.askInt("Age"); err != nil {
		return err
	}
	if role == model.RoleStaff {
		if in.EmployeeID, err = c.ask("Employee ID"); err != nil {
			return err
		}
		if in.Shift, err = c.ask("Shift"); err != nil {
			return err
		}
	}
	if in.Secret, err = c.askSecret("Secret"); err != nil {
		return err
	}

	p, err := c.lib.RegisterPerson(ctx, in)
	if err != nil {
		return err
	}
	c.printf("Registered %s %q with ID %s\n", p.Role, p.Name, p.ID)
	if p.Member != nil {
		c.printf("Subscription valid until %s\n", day(p.Member.ExpiresAt))
	}
	return nil
}

func (c *Console) cmdLogin(ctx context.Context, req Request) error {
	email, err := c.arg(req, 0, "Email")
	if err != nil {
		return err
	}
	secret, err := c.askSecret("Secret")
	if err != nil {
		return err
	}
	p, err := c.auth.Login(ctx, email, secret, c.client)
	if err != nil {
		return err
	}
	c.session = p
	c.printf("Welcome, %s (%s)\n", p.Name, p.Role)
	if p.SubscriptionExpired(c.now()) {
		c.printf("Note: your subscription expired on %s\n", day(p.Member.ExpiresAt))
	}
	return nil
}

func (c *Console) cmdLogout(ctx context.Context, _ Request) error {
	p, _ := PersonFromCtx(ctx)
	c.session = nil
	c.printf("Goodbye, %s\n", p.Name)
	return nil
}

func (c *Console) cmdWhoami(ctx context.Context, _ Request) error {
	p, _ := PersonFromCtx(ctx)
	c.printf("ID:     %s\n", p.ID)
	c.printf("Name:   %s\n", p.Name)
	c.printf("Email:  %s\n", p.Email)
	c.printf("Age:    %d\n", p.Age)
	c.printf("Role:   %s\n", p.Role)
	c.printf("Status: %s\n", c.personStatus(p))
	return nil
}

// ---- catalog ----

func (c *Console) cmdItems(ctx context.Context, _ Request) error {
	items, err := c.lib.ListItems(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		c.printf("No items in the catalog.\n")
		return nil
	}
	c.printItems(items)
	return nil
}

func (c *Console) cmdSearch(ctx context.Context, req Request) error {
	query := strings.Join(req.Args, " ")
	if query == "" {
		var err error
		if query, err = c.ask("Title contains"); err != nil {
			return err
		}
	}
	items, err := c.lib.FindByTitle(ctx, query)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		c.printf("No items match %q.\n", query)
		return nil
	}
	c.printf("Found %d item(s) matching %q:\n", len(items), query)
	c.printItems(items)
	return nil
}

func (c *Console) cmdAddItem(ctx context.Context, _ Request) error {
	kindText, err := c.ask("Kind (book/dvd/cd/ebook)")
	if err != nil {
		return err
	}
	kind, ok := model.ParseKind(kindText)
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", errs.ErrValidation, kindText)
	}

	it := model.Item{Kind: kind}
	if it.Title, err = c.ask("Title"); err != nil {
		return err
	}
	if it.Author, err = c.ask("Author"); err != nil {
		return err
	}
	if it.Stock, err = c.askInt("Stock"); err != nil {
		return err
	}
	if err := c.askDetails(&it); err != nil {
		return err
	}

	got, merged, err := c.lib.AddItem(ctx, it)
	if err != nil {
		return err
	}
	if merged {
		c.printf("Merged into existing item %s, stock now %d\n", got.ID, got.Stock)
		return nil
	}
	c.printf("Added %s %q with ID %s\n", got.Kind, got.Title, got.ID)
	return nil
}

func (c *Console) askDetails(it *model.Item) error {
	var err error
	switch it.Kind {
	case model.KindBook:
		d := &model.BookDetails{}
		if d.Pages, err = c.askInt("Pages"); err != nil {
			return err
		}
		if d.Genre, err = c.ask("Genre"); err != nil {
			return err
		}
		if d.ISBN, err = c.ask("ISBN"); err != nil {
			return err
		}
		it.Book = d
	case model.KindVideo:
		d := &model.VideoDetails{}
		if d.RuntimeMinutes, err = c.askInt("Runtime (minutes)"); err != nil {
			return err
		}
		if d.Rating, err = c.ask("Age rating (e.g. +16)"); err != nil {
			return err
		}
		it.Video = d
	case model.KindAudio:
		d := &model.AudioDetails{}
		if d.RuntimeMinutes, err = c.askInt("Runtime (minutes)"); err != nil {
			return err
		}
		if d.Genre, err = c.ask("Genre"); err != nil {
			return err
		}
		if d.UPC, err = c.ask("UPC"); err != nil {
			return err
		}
		it.Audio = d
	case model.KindEbook:
		d := &model.EbookDetails{}
		if d.Format, err = c.ask("Format"); err != nil {
			return err
		}
		size, err := c.ask("Size (MB)")
		if err != nil {
			return err
		}
		if d.SizeMB, err = strconv.ParseFloat(size, 64); err != nil {
			return fmt.Errorf("%w: size must be a number, got %q", errs.ErrValidation, size)
		}
		it.Ebook = d
	}
	return nil
}

func (c *Console) cmdRemoveItem(ctx context.Context, req Request) error {
	id, err := c.argID(req, 0, "Item ID")
	if err != nil {
		return err
	}
	if err := c.lib.RemoveItem(ctx, id); err != nil {
		return err
	}
	c.printf("Removed item %s\n", id)
	return nil
}

func (c *Console) cmdAdjustStock(ctx context.Context, req Request) error {
	id, err := c.argID(req, 0, "Item ID")
	if err != nil {
		return err
	}
	delta, err := c.argInt(req, 1, "Delta")
	if err != nil {
		return err
	}
	it, err := c.lib.AdjustStock(ctx, id, delta)
	if err != nil {
		return err
	}
	c.printf("Stock of %q is now %d\n", it.Title, it.Stock)
	return nil
}

// ---- persons ----

func (c *Console) cmdPersons(ctx context.Context, _ Request) error {
	persons, err := c.lib.ListPersons(ctx)
	if err != nil {
		return err
	}
	if len(persons) == 0 {
		c.printf("No persons registered.\n")
		return nil
	}
	c.printf("%-36s %-6s %-24s %-28s %-4s %s\n", "ID", "Role", "Name", "Email", "Age", "Status")
	c.printf("%s\n", strings.Repeat("-", 130))
	for _, p := range persons {
		c.printf("%-36s %-6s %-24s %-28s %-4d %s\n",
			p.ID, p.Role, truncate(p.Name, 24), truncate(p.Email, 28), p.Age, c.personStatus(p))
	}
	return nil
}

func (c *Console) cmdRemovePerson(ctx context.Context, req Request) error {
	ref, err := c.arg(req, 0, "Person ID or email")
	if err != nil {
		return err
	}
	p, err := c.resolvePerson(ctx, ref)
	if err != nil {
		return err
	}
	if err := c.lib.DeregisterPerson(ctx, p.ID); err != nil {
		return err
	}
	c.printf("Deregistered %s (%s); their loans are kept\n", p.Name, p.Email)
	return nil
}

func (c *Console) cmdRenew(ctx context.Context, req Request) error {
	ref, err := c.arg(req, 0, "Member ID or email")
	if err != nil {
		return err
	}
	p, err := c.resolvePerson(ctx, ref)
	if err != nil {
		return err
	}
	if p, err = c.lib.RenewSubscription(ctx, p.ID); err != nil {
		return err
	}
	c.printf("Subscription of %s valid until %s\n", p.Name, day(p.Member.ExpiresAt))
	return nil
}

func (c *Console) cmdExtendSubscription(ctx context.Context, req Request) error {
	ref, err := c.arg(req, 0, "Member ID or email")
	if err != nil {
		return err
	}
	days, err := c.argInt(req, 1, "Days")
	if err != nil {
		return err
	}
	p, err := c.resolvePerson(ctx, ref)
	if err != nil {
		return err
	}
	if p, err = c.lib.ExtendSubscription(ctx, p.ID, days); err != nil {
		return err
	}
	c.printf("Subscription of %s valid until %s\n", p.Name, day(p.Member.ExpiresAt))
	return nil
}

// ---- loans ----

func (c *Console) cmdBorrow(ctx context.Context, req Request) error {
	me, _ := PersonFromCtx(ctx)

	fs := flag.NewFlagSet("borrow", flag.ContinueOnError)
	fs.SetOutput(c.out)
	forWho := fs.String("for", "", "person id or email (staff only)")
	days := fs.Int("days", 0, "loan period in days (0 uses the default)")
	if err := fs.Parse(req.Args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}

	borrower := me
	if *forWho != "" {
		p, err := c.resolvePerson(ctx, *forWho)
		if err != nil {
			return err
		}
		if p.ID != me.ID && !me.IsStaff() {
			return fmt.Errorf("%w: members may only borrow for themselves", errs.ErrForbidden)
		}
		borrower = p
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("%w: no items given, usage: %s", errs.ErrValidation, c.commands["borrow"].usage)
	}
	lines := make([]model.LoanLine, 0, fs.NArg())
	for _, a := range fs.Args() {
		ln, err := parseLine(a)
		if err != nil {
			return err
		}
		lines = append(lines, ln)
	}

	loan, rejected, err := c.lib.CreateLoan(ctx, borrower.ID, lines, *days)
	if err != nil {
		return err
	}
	c.printf("Loan %s for %s created, due %s\n", loan.ID, borrower.Name, day(loan.DueAt))
	for _, ln := range loan.Lines {
		c.printf("  + %s x%d\n", c.itemTitle(ctx, ln.ItemID), ln.Quantity)
	}
	for _, r := range rejected {
		c.printf("  - skipped %s x%d: %v\n", c.itemTitle(ctx, r.Line.ItemID), r.Line.Quantity, r.Reason)
	}
	return nil
}

func (c *Console) cmdLoans(ctx context.Context, req Request) error {
	me, _ := PersonFromCtx(ctx)
	target := me
	if len(req.Args) > 0 {
		p, err := c.resolvePerson(ctx, req.Args[0])
		if err != nil {
			return err
		}
		if p.ID != me.ID && !me.IsStaff() {
			return fmt.Errorf("%w: members may only list their own loans", errs.ErrForbidden)
		}
		target = p
	}

	loans, err := c.lib.ListLoansForPerson(ctx, target.ID)
	if err != nil {
		return err
	}
	if len(loans) == 0 {
		c.printf("No loans for %s.\n", target.Name)
		return nil
	}

	now := c.now()
	c.printf("%-36s %-10s %-10s %-8s %s\n", "ID", "Started", "Due", "Status", "Items")
	c.printf("%s\n", strings.Repeat("-", 110))
	for _, l := range loans {
		status := "open"
		switch {
		case l.Returned:
			status = "returned"
		case l.Overdue(now):
			status = "overdue"
		}
		parts := make([]string, 0, len(l.Lines))
		for _, ln := range l.Lines {
			parts = append(parts, fmt.Sprintf("%s x%d", truncate(c.itemTitle(ctx, ln.ItemID), 30), ln.Quantity))
		}
		c.printf("%-36s %-10s %-10s %-8s %s\n", l.ID, day(l.StartedAt), day(l.DueAt), status, strings.Join(parts, ", "))
	}
	return nil
}

func (c *Console) cmdReturn(ctx context.Context, req Request) error {
	me, _ := PersonFromCtx(ctx)
	id, err := c.argID(req, 0, "Loan ID")
	if err != nil {
		return err
	}
	loan, err := c.lib.GetLoan(ctx, id)
	if err != nil {
		return err
	}
	if loan.PersonID != me.ID && !me.IsStaff() {
		return fmt.Errorf("%w: members may only return their own loans", errs.ErrForbidden)
	}

	res, err := c.lib.ReturnLoan(ctx, id)
	if err != nil {
		return err
	}
	c.printf("%s\n", res.Message)
	return nil
}

func (c *Console) cmdExtendLoan(ctx context.Context, req Request) error {
	id, err := c.argID(req, 0, "Loan ID")
	if err != nil {
		return err
	}
	days, err := c.argInt(req, 1, "Days")
	if err != nil {
		return err
	}
	loan, err := c.lib.ExtendLoan(ctx, id, days)
	if err != nil {
		return err
	}
	c.printf("Loan %s now due %s\n", loan.ID, day(loan.DueAt))
	return nil
}

func (c *Console) cmdOverdue(ctx context.Context, _ Request) error {
	loans, err := c.lib.ListOverdueLoans(ctx)
	if err != nil {
		return err
	}
	if len(loans) == 0 {
		c.printf("No overdue loans.\n")
		return nil
	}

	now := c.now()
	c.printf("%-36s %-24s %-10s %-5s %s\n", "ID", "Borrower", "Due", "Days", "Items")
	c.printf("%s\n", strings.Repeat("-", 110))
	for _, l := range loans {
		who := l.PersonID.String()
		if p, err := c.lib.GetPerson(ctx, l.PersonID); err == nil {
			who = p.Name
		}
		parts := make([]string, 0, len(l.Lines))
		for _, ln := range l.Lines {
			parts = append(parts, fmt.Sprintf("%s x%d", truncate(c.itemTitle(ctx, ln.ItemID), 30), ln.Quantity))
		}
		late := int(now.Sub(l.DueAt).Hours() / 24)
		c.printf("%-36s %-24s %-10s %-5d %s\n", l.ID, truncate(who, 24), day(l.DueAt), late, strings.Join(parts, ", "))
	}
	return nil
}

func (c *Console) cmdStats(context.Context, Request) error {
	if c.metrics == nil {
		c.printf("Metrics are disabled.\n")
		return nil
	}
	samples, err := c.metrics.Snapshot()
	if err != nil {
		return err
	}
	for _, s := range samples {
		c.printf("%-64s %g\n", s.Name, s.Value)
	}
	return nil
}

// ---- formatting ----

func (c *Console) printItems(items []*model.Item) {
	c.printf("%-36s %-6s %-30s %-22s %-6s %s\n", "ID", "Kind", "Title", "Author", "Stock", "Details")
	c.printf("%s\n", strings.Repeat("-", 130))
	for _, it := range items {
		c.printf("%-36s %-6s %-30s %-22s %-6d %s\n",
			it.ID, it.Kind, truncate(it.Title, 30), truncate(it.Author, 22), it.Stock, itemDetails(it))
	}
}

func (c *Console) personStatus(p *model.Person) string {
	switch {
	case p.Staff != nil:
		return fmt.Sprintf("employee %s, %s shift", p.Staff.EmployeeID, p.Staff.Shift)
	case p.Member == nil:
		return ""
	case p.SubscriptionExpired(c.now()):
		return "expired " + day(p.Member.ExpiresAt)
	default:
		return "valid until " + day(p.Member.ExpiresAt)
	}
}

func itemDetails(it *model.Item) string {
	switch {
	case it.Book != nil:
		return fmt.Sprintf("%d pages, %s, ISBN %s", it.Book.Pages, it.Book.Genre, it.Book.ISBN)
	case it.Video != nil:
		return fmt.Sprintf("%d min, rated %s", it.Video.RuntimeMinutes, it.Video.Rating)
	case it.Audio != nil:
		return fmt.Sprintf("%d min, %s, UPC %s", it.Audio.RuntimeMinutes, it.Audio.Genre, it.Audio.UPC)
	case it.Ebook != nil:
		return fmt.Sprintf("%s, %.1f MB", it.Ebook.Format, it.Ebook.SizeMB)
	default:
		return ""
	}
}

// parseLine reads "<item-id>" or "<item-id>:<qty>".
func parseLine(s string) (model.LoanLine, error) {
	idText, qtyText, hasQty := strings.Cut(s, ":")
	id, err := uuidFrom(idText)
	if err != nil {
		return model.LoanLine{}, err
	}
	qty := 1
	if hasQty {
		if qty, err = parseInt("quantity", qtyText); err != nil {
			return model.LoanLine{}, err
		}
	}
	return model.LoanLine{ItemID: id, Quantity: qty}, nil
}
