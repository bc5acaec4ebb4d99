// Package planning builds the two-stage stochastic dispatch model.
//
// Build turns a model.ScenarioData plus a risk level beta and a trade cost
// kappa into an immutable Model:
//
//	min  Σ_s p[s]·(Σ_{r,t} c[t]·x[r,t,s] + κ·Σ_{r1≠r2} y[r1,r2,s])
//	     + 1/(1−β)·(η + Σ_s p[s]·z[s])
//
//	demand[r,s]    Σ_t x[r,t,s] + Σ_{r1≠r} y[r1,r,s] − Σ_{r2≠r} y[r,r2,s] ≥ d[s][r]
//	capacity[r,t,s] x[r,t,s] ≤ e[s][r][t]
//	cvar[s]        z[s] − cost_s(x,y) + η ≥ 0
//
// x, y and z are non-negative, η is free. Variables and constraints are held
// in sets keyed by their indices, so a Model does not depend on the order in
// which its parts were generated.
package planning
