package store

// Tx exposes typed access to the dataset inside WithTx or View. Getters
// return copies; nothing handed out aliases the live collections.
type Tx struct {
	data     *Dataset
	readOnly bool
}

func (tx *Tx) writable() error {
	if tx.readOnly {
		return ErrReadOnly
	}
	return nil
}

func indexByID[T any](list []T, id string, idOf func(T) string) int {
	for i := range list {
		if idOf(list[i]) == id {
			return i
		}
	}
	return -1
}

func upsert[T any](list []T, v T, idOf func(T) string) []T {
	if i := indexByID(list, idOf(v), idOf); i >= 0 {
		list[i] = v
		return list
	}
	return append(list, v)
}

func remove[T any](list []T, id string, idOf func(T) string) ([]T, bool) {
	i := indexByID(list, id, idOf)
	if i < 0 {
		return list, false
	}
	return append(list[:i], list[i+1:]...), true
}

func itemID(v Item) string { return v.ID }
func projectID(v Project) string { return v.ID }
func clientID(v Client) string { return v.ID }
func invoiceID(v Invoice) string { return v.ID }
func userID(v User) string { return v.ID }

// Item returns the item with id.
func (tx *Tx) Item(id string) (Item, error) {
	if i := indexByID(tx.data.Items, id, itemID); i >= 0 {
		return tx.data.Items[i], nil
	}
	return Item{}, notFound("item", id)
}

// Items lists items in insertion order.
func (tx *Tx) Items() []Item {
	return append([]Item(nil), tx.data.Items...)
}

// PutItem inserts or replaces an item.
func (tx *Tx) PutItem(item Item) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.data.Items = upsert(tx.data.Items, item, itemID)
	return nil
}

// DeleteItem removes an item.
func (tx *Tx) DeleteItem(id string) error {
	if err := tx.writable(); err != nil {
		return err
	}
	var ok bool
	if tx.data.Items, ok = remove(tx.data.Items, id, itemID); !ok {
		return notFound("item", id)
	}
	return nil
}

// Project returns the project with id.
func (tx *Tx) Project(id string) (Project, error) {
	if i := indexByID(tx.data.Projects, id, projectID); i >= 0 {
		return tx.data.Projects[i], nil
	}
	return Project{}, notFound("project", id)
}

// Projects lists projects in insertion order.
func (tx *Tx) Projects() []Project {
	return append([]Project(nil), tx.data.Projects...)
}

// PutProject inserts or replaces a project.
func (tx *Tx) PutProject(p Project) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.data.Projects = upsert(tx.data.Projects, p, projectID)
	return nil
}

// DeleteProject removes a project.
func (tx *Tx) DeleteProject(id string) error {
	if err := tx.writable(); err != nil {
		return err
	}
	var ok bool
	if tx.data.Projects, ok = remove(tx.data.Projects, id, projectID); !ok {
		return notFound("project", id)
	}
	return nil
}

// Client returns the client with id.
func (tx *Tx) Client(id string) (Client, error) {
	if i := indexByID(tx.data.Clients, id, clientID); i >= 0 {
		return tx.data.Clients[i], nil
	}
	return Client{}, notFound("client", id)
}

// Clients lists clients in insertion order.
func (tx *Tx) Clients() []Client {
	return append([]Client(nil), tx.data.Clients...)
}

// PutClient inserts or replaces a client.
func (tx *Tx) PutClient(c Client) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.data.Clients = upsert(tx.data.Clients, c, clientID)
	return nil
}

// DeleteClient removes a client.
func (tx *Tx) DeleteClient(id string) error {
	if err := tx.writable(); err != nil {
		return err
	}
	var ok bool
	if tx.data.Clients, ok = remove(tx.data.Clients, id, clientID); !ok {
		return notFound("client", id)
	}
	return nil
}

// Invoice returns the invoice with id.
func (tx *Tx) Invoice(id string) (Invoice, error) {
	if i := indexByID(tx.data.Invoices, id, invoiceID); i >= 0 {
		return tx.data.Invoices[i].clone(), nil
	}
	return Invoice{}, notFound("invoice", id)
}

// Invoices lists invoices, most recent first.
func (tx *Tx) Invoices() []Invoice {
	out := make([]Invoice, len(tx.data.Invoices))
	for i, inv := range tx.data.Invoices {
		out[i] = inv.clone()
	}
	return out
}

// PrependInvoice stores a newly issued invoice at the head of the list.
func (tx *Tx) PrependInvoice(inv Invoice) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.data.Invoices = append([]Invoice{inv.clone()}, tx.data.Invoices...)
	return nil
}

// UpdateInvoice replaces an existing invoice in place.
func (tx *Tx) UpdateInvoice(inv Invoice) error {
	if err := tx.writable(); err != nil {
		return err
	}
	i := indexByID(tx.data.Invoices, inv.ID, invoiceID)
	if i < 0 {
		return notFound("invoice", inv.ID)
	}
	tx.data.Invoices[i] = inv.clone()
	return nil
}

// DeleteInvoice removes an invoice.
func (tx *Tx) DeleteInvoice(id string) error {
	if err := tx.writable(); err != nil {
		return err
	}
	var ok bool
	if tx.data.Invoices, ok = remove(tx.data.Invoices, id, invoiceID); !ok {
		return notFound("invoice", id)
	}
	return nil
}

// Payments lists payments, most recent first.
func (tx *Tx) Payments() []Payment {
	return append([]Payment(nil), tx.data.Payments...)
}

// PrependPayment appends to the payment log.
func (tx *Tx) PrependPayment(p Payment) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.data.Payments = append([]Payment{p}, tx.data.Payments...)
	return nil
}

// Transactions lists inventory movements, most recent first.
func (tx *Tx) Transactions() []InventoryTransaction {
	return append([]InventoryTransaction(nil), tx.data.Transactions...)
}

// PrependTransaction appends to the movement log.
func (tx *Tx) PrependTransaction(t InventoryTransaction) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.data.Transactions = append([]InventoryTransaction{t}, tx.data.Transactions...)
	return nil
}

// User returns the user with id.
func (tx *Tx) User(id string) (User, error) {
	if i := indexByID(tx.data.Users, id, userID); i >= 0 {
		return tx.data.Users[i], nil
	}
	return User{}, notFound("user", id)
}

// Users lists users in insertion order.
func (tx *Tx) Users() []User {
	return append([]User(nil), tx.data.Users...)
}

// PutUser inserts or replaces a user.
func (tx *Tx) PutUser(u User) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.data.Users = upsert(tx.data.Users, u, userID)
	return nil
}

// DeleteUser removes a user.
func (tx *Tx) DeleteUser(id string) error {
	if err := tx.writable(); err != nil {
		return err
	}
	var ok bool
	if tx.data.Users, ok = remove(tx.data.Users, id, userID); !ok {
		return notFound("user", id)
	}
	return nil
}

// Settings returns the invoicing settings.
func (tx *Tx) Settings() Settings {
	return tx.data.Settings
}

// SetSettings replaces the invoicing settings.
func (tx *Tx) SetSettings(s Settings) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.data.Settings = s
	return nil
}

// Company returns the company profile.
func (tx *Tx) Company() CompanyProfile {
	return tx.data.Company
}

// SetCompany replaces the company profile.
func (tx *Tx) SetCompany(c CompanyProfile) error {
	if err := tx.writable(); err != nil {
		return err
	}
	tx.data.Company = c
	return nil
}
