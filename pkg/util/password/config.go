package password

import "github.com/clinicheck/clinicheck_backend/config"

// lowMemoryCapKiB bounds Argon2id memory in low-memory deployments.
const lowMemoryCapKiB = 32 * 1024

// Config is the cost applied when hashing account passwords, including
// the temporary passwords issued to new patients. Zero fields take the
// values of DefaultParams.
type Config struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// LowMemory caps MemoryKiB at 32 MiB.
	LowMemory bool
}

// ToParams resolves c against DefaultParams.
func (c Config) ToParams() *Params {
	p := DefaultParams()
	if c.MemoryKiB > 0 {
		p.Memory = c.MemoryKiB
	}
	if c.Iterations > 0 {
		p.Iterations = c.Iterations
	}
	if c.Parallelism > 0 {
		p.Parallelism = c.Parallelism
	}
	if c.SaltLength > 0 {
		p.SaltLength = c.SaltLength
	}
	if c.KeyLength > 0 {
		p.KeyLength = c.KeyLength
	}
	if c.LowMemory && p.Memory > lowMemoryCapKiB {
		p.Memory = lowMemoryCapKiB
	}
	return p
}

// LowMemoryConfig mirrors LowMemoryParams. Tests use it to keep hashing fast.
func LowMemoryConfig() Config {
	p := LowMemoryParams()
	return Config{
		MemoryKiB:   p.Memory,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
		LowMemory:   true,
	}
}

func FromCentralConfig(c config.PasswordConfig) Config {
	return Config{
		MemoryKiB:   c.MemoryKiB,
		Iterations:  c.Iterations,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
		LowMemory:   c.LowMemoryMode,
	}
}
