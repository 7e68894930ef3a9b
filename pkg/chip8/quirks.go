package chip8

// Quirks selects between behaviours that CHIP-8 references disagree on.
//
// 8xy6 (SHR) and 8xyE (SHL): Cowgod's technical reference shifts Vx in place
// and ignores Vy, which is what most ROMs written after 1990 expect. The
// original COSMAC VIP interpreter instead loaded Vx from Vy before shifting.
// The zero value follows Cowgod; set ShiftUsesVy for the COSMAC behaviour.
type Quirks struct {
	ShiftUsesVy bool
}
