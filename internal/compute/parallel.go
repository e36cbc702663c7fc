package compute

import "golang.org/x/sync/errgroup"

// ParallelFor calls fn(i) for every i in [0, n), splitting the range into at
// most d.Lanes() contiguous stripes that run concurrently. Iterations must be
// independent. The first error is returned after all stripes finish.
func ParallelFor(d Device, n int, fn func(i int) error) error {
	lanes := d.Lanes()
	if lanes > n {
		lanes = n
	}
	if lanes <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	for lane := 0; lane < lanes; lane++ {
		lo := lane * n / lanes
		hi := (lane + 1) * n / lanes
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
