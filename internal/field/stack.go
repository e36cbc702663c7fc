package field

// Unreached marks a cell that is blocked, or has not been (and, once the
// engine returns, cannot be) reached from the field's goal.
const Unreached int32 = -1

// Stack is a batch of distance fields sharing one grid shape, stored as one
// contiguous slab: slot b occupies Data[b*Width*Height : (b+1)*Width*Height].
type Stack struct {
	Batch  int
	Width  int
	Height int
	Data   []int32

	// Levels is the number of BFS levels in which at least one slot expanded.
	Levels int
}

func newStack(batch, width, height int) *Stack {
	return &Stack{
		Batch:  batch,
		Width:  width,
		Height: height,
		Data:   make([]int32, batch*width*height),
	}
}

// Field returns slot b's row-major distance field.
func (s *Stack) Field(b int) []int32 {
	n := s.Width * s.Height
	return s.Data[b*n : (b+1)*n]
}

// At returns slot b's distance at (x,y).
func (s *Stack) At(b, x, y int) int32 {
	return s.Data[(b*s.Height+y)*s.Width+x]
}

// Padded is a Stack surrounded by Radius sentinel cells on every side.
// Width and Height include the border.
type Padded struct {
	Batch  int
	Width  int
	Height int
	Radius int
	Data   []int32
}

// Pad copies the stack into a Padded stack with a border of radius cells
// holding Unreached.
func (s *Stack) Pad(radius int) *Padded {
	if radius < 0 {
		radius = 0
	}
	pw := s.Width + 2*radius
	ph := s.Height + 2*radius
	p := &Padded{
		Batch:  s.Batch,
		Width:  pw,
		Height: ph,
		Radius: radius,
		Data:   make([]int32, s.Batch*pw*ph),
	}
	for i := range p.Data {
		p.Data[i] = Unreached
	}
	for b := 0; b < s.Batch; b++ {
		src := s.Field(b)
		dst := p.Field(b)
		for y := 0; y < s.Height; y++ {
			off := (y+radius)*pw + radius
			copy(dst[off:off+s.Width], src[y*s.Width:(y+1)*s.Width])
		}
	}
	return p
}

// Field returns padded slot b.
func (p *Padded) Field(b int) []int32 {
	n := p.Width * p.Height
	return p.Data[b*n : (b+1)*n]
}

// At returns padded slot b at padded coordinates (px,py). Coordinates outside
// the padded field read Unreached.
func (p *Padded) At(b, px, py int) int32 {
	if px < 0 || px >= p.Width || py < 0 || py >= p.Height {
		return Unreached
	}
	return p.Data[(b*p.Height+py)*p.Width+px]
}
