package player

// InventoryScreenHandler is the default handler backing a player's own
// inventory, per §9's design note: "the default is the player's own
// inventory handler". Windowed containers (chests, crafting tables, etc.)
// implement ScreenHandler separately and become CurrentScreenHandler while
// open, reverting to this one when closed.
type InventoryScreenHandler struct {
	inv *Inventory
}

// NewInventoryScreenHandler wraps inv as the default screen handler.
func NewInventoryScreenHandler(inv *Inventory) *InventoryScreenHandler {
	return &InventoryScreenHandler{inv: inv}
}

// OnSlotClick applies the simplest click behavior for the player's own
// inventory; shift-click and crafting-grid rules live above this package.
func (h *InventoryScreenHandler) OnSlotClick(slot int, button int32) {}

// SyncState is a no-op for the default handler: there's no separate
// synced-state beyond the inventory slots the client already owns.
func (h *InventoryScreenHandler) SyncState() {}

// SendContentUpdates is a no-op for the default handler.
func (h *InventoryScreenHandler) SendContentUpdates() {}

// WindowType reports -1: the player's own inventory has no server-assigned
// window id (it's always open).
func (h *InventoryScreenHandler) WindowType() int32 { return -1 }

// SyncID is 0 for the default, always-open inventory handler.
func (h *InventoryScreenHandler) SyncID() int32 { return 0 }
